package domain

import "time"

// Mode selects how local categories are mapped onto remote ones.
type Mode string

func (m Mode) String() string {
	return string(m)
}

const (
	ModeImport Mode = "import" // create new remote categories
	ModeUpdate Mode = "update" // reconcile against existing remote categories
)

func (m Mode) Valid() bool {
	return m == ModeImport || m == ModeUpdate
}

// CategoryState tracks a category through a sync run.
type CategoryState string

const (
	StatePending        CategoryState = "pending"
	StateResolved       CategoryState = "resolved"
	StateCookiesSynced  CategoryState = "cookies_synced"
	StateCookiesSkipped CategoryState = "cookies_skipped"
	StateTagsSynced     CategoryState = "tags_synced"
	StateTagsSkipped    CategoryState = "tags_skipped"
	StateDone           CategoryState = "done"
	StateFailed         CategoryState = "failed"
)

type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusFailedAtMatch  Status = "failed_at_match"
	StatusFailedAtCreate Status = "failed_at_create"
	StatusFailedAtPatch  Status = "failed_at_patch"
	StatusAborted        Status = "aborted" // not attempted after a fail-fast error
)

type KindOutcome string

const (
	OutcomePending KindOutcome = "pending"
	OutcomeSynced  KindOutcome = "synced"
	OutcomeSkipped KindOutcome = "skipped"
	OutcomeFailed  KindOutcome = "failed"
)

// CategoryResult is the outcome of syncing one local category.
type CategoryResult struct {
	Category string        `json:"category"`
	RemoteID CategoryID    `json:"remote_id,omitempty"`
	State    CategoryState `json:"state"`
	Status   Status        `json:"status"`
	Cookies  KindOutcome   `json:"cookies"`
	Tags     KindOutcome   `json:"tags"`
	Err      error         `json:"-"`
}

func (r *CategoryResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// ErrorText returns the failure cause as text, or an empty string.
func (r *CategoryResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report summarizes a sync run.
type Report struct {
	Mode       Mode              `json:"mode"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Results    []*CategoryResult `json:"results"`
}

func (r *Report) Succeeded() []*CategoryResult {
	out := make([]*CategoryResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Failed() []*CategoryResult {
	out := make([]*CategoryResult, 0)
	for _, res := range r.Results {
		if !res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0
}
