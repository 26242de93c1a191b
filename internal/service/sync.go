package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consent/sync/internal/client"
	"consent/sync/internal/domain"
	"consent/sync/internal/matcher"
	"consent/sync/internal/planner"
	"consent/sync/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Request replaces the interactive prompts of a sync run.
type Request struct {
	Mode           domain.Mode
	IncludeCookies bool
	IncludeTags    bool
	SelectedNames  []string // update mode only, one per local category
}

func (r Request) includes(kind domain.ChildKind) bool {
	switch kind {
	case domain.KindCookies:
		return r.IncludeCookies
	case domain.KindTags:
		return r.IncludeTags
	default:
		return false
	}
}

// Service pushes a local taxonomy to the consent service. All remote calls
// are issued sequentially.
type Service struct {
	client  client.ConsentClient
	reports repository.ReportRepository
	now     func() time.Time
}

// NewService creates the sync service. reports may be nil.
func NewService(client client.ConsentClient, reports repository.ReportRepository) *Service {
	return &Service{
		client:  client,
		reports: reports,
		now:     time.Now,
	}
}

// Sync runs one import or update. Pre-flight errors are returned without a
// report and before any remote call. In update mode the first category that
// cannot be matched stops the run: the partial report is returned together
// with the MatchError or ConflictError. Create and patch failures are recorded per category
// and the run continues.
func (s *Service) Sync(ctx context.Context, taxonomy *domain.Taxonomy, req Request) (*domain.Report, error) {
	if taxonomy == nil {
		return nil, domain.NewValidationError("", 0, "no local categories to sync")
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown sync mode %q", req.Mode)
	}

	categories := taxonomy.Categories()
	report := &domain.Report{
		Mode:      req.Mode,
		StartedAt: s.now(),
		Results:   make([]*domain.CategoryResult, 0, len(categories)),
	}

	resolver, err := s.resolver(ctx, req, len(categories))
	if err != nil {
		return nil, err
	}

	log.Infof("🔄 Syncing %d categories in %s mode (cookies: %t, tags: %t)",
		len(categories), req.Mode, req.IncludeCookies, req.IncludeTags)

	var runErr error
	for i, category := range categories {
		if runErr != nil {
			report.Results = append(report.Results, abortedResult(category))
			continue
		}

		result := s.syncCategory(ctx, resolver, req, i, category)
		report.Results = append(report.Results, result)

		if result.Status == domain.StatusFailedAtMatch {
			runErr = result.Err
		}
	}

	report.FinishedAt = s.now()
	s.saveReport(ctx, report)

	log.Infof("✅ Sync finished: %d succeeded, %d failed", len(report.Succeeded()), len(report.Failed()))
	return report, runErr
}

func (s *Service) resolver(ctx context.Context, req Request, count int) (matcher.Resolver, error) {
	if req.Mode == domain.ModeUpdate {
		return matcher.NewReconcileResolver(ctx, s.client, count, req.SelectedNames)
	}
	return matcher.NewCreateResolver(s.client), nil
}

func (s *Service) syncCategory(
	ctx context.Context,
	resolver matcher.Resolver,
	req Request,
	index int,
	category domain.LocalCategory,
) *domain.CategoryResult {
	result := &domain.CategoryResult{
		Category: category.Name,
		State:    domain.StatePending,
		Cookies:  domain.OutcomePending,
		Tags:     domain.OutcomePending,
	}

	target, err := resolver.Resolve(ctx, index, category)
	if err != nil {
		result.State = domain.StateFailed
		result.Err = err
		if resolver.Mode() == domain.ModeUpdate {
			result.Status = domain.StatusFailedAtMatch
		} else {
			result.Status = domain.StatusFailedAtCreate
		}
		log.Errorf("❌ %s: %v", category.Name, err)
		return result
	}

	result.RemoteID = target.RemoteID
	result.State = domain.StateResolved
	log.Infof("🔄 %s -> %q (id %s)", category.Name, target.RemoteName, target.RemoteID)

	// Cookies and tags are independent collections: a failed kind does not
	// stop the other one.
	var patchErrs []error
	for _, kind := range domain.ChildKinds {
		if !req.includes(kind) {
			setOutcome(result, kind, domain.OutcomeSkipped)
			continue
		}

		if err := s.syncChildren(ctx, target, kind, resolver.Mode()); err != nil {
			setOutcome(result, kind, domain.OutcomeFailed)
			patchErrs = append(patchErrs, err)
			log.Errorf("❌ %s: %v", category.Name, err)
			continue
		}
		setOutcome(result, kind, domain.OutcomeSynced)
	}

	if len(patchErrs) > 0 {
		result.State = domain.StateFailed
		result.Status = domain.StatusFailedAtPatch
		result.Err = errors.Join(patchErrs...)
		return result
	}

	result.State = domain.StateDone
	result.Status = domain.StatusSucceeded
	log.Infof("✅ %s synced (cookies: %s, tags: %s)", category.Name, result.Cookies, result.Tags)
	return result
}

// syncChildren replaces one child collection. In update mode the current
// collection is fetched right before the remove batch is built, and the
// remove batch completes before the add batch is sent.
func (s *Service) syncChildren(ctx context.Context, target matcher.Target, kind domain.ChildKind, mode domain.Mode) error {
	if mode == domain.ModeUpdate {
		current, err := s.client.GetChildren(ctx, target.RemoteID, kind)
		if err != nil {
			return fmt.Errorf("failed to fetch current %s: %w", kind, err)
		}

		remove := planner.RemoveAll(kind, len(current))
		if err := s.apply(ctx, target.RemoteID, remove); err != nil {
			return fmt.Errorf("failed to remove %d %s: %w", remove.Len(), kind, err)
		}
	}

	add := planner.AddAll(target.Category, kind)
	if err := s.apply(ctx, target.RemoteID, add); err != nil {
		return fmt.Errorf("failed to add %d %s: %w", add.Len(), kind, err)
	}

	return nil
}

// apply sends the whole plan as a single batched PATCH. Empty plans are not sent.
func (s *Service) apply(ctx context.Context, id domain.CategoryID, plan *planner.Plan) error {
	if plan.IsEmpty() {
		return nil
	}

	log.Debugf("PATCH %s of %s with %d operations", plan.Kind, id, plan.Len())
	return s.client.PatchChildren(ctx, id, plan.Kind, plan.Ops)
}

func (s *Service) saveReport(ctx context.Context, report *domain.Report) {
	if s.reports == nil {
		return
	}

	runID, err := s.reports.SaveReport(ctx, report)
	if err != nil {
		log.Warnf("⚠️ Failed to save sync report: %v", err)
		return
	}
	log.Debugf("Saved sync report as run %d", runID)
}

func setOutcome(result *domain.CategoryResult, kind domain.ChildKind, outcome domain.KindOutcome) {
	switch kind {
	case domain.KindCookies:
		result.Cookies = outcome
		if outcome == domain.OutcomeSynced {
			result.State = domain.StateCookiesSynced
		} else if outcome == domain.OutcomeSkipped {
			result.State = domain.StateCookiesSkipped
		}
	case domain.KindTags:
		result.Tags = outcome
		if outcome == domain.OutcomeSynced {
			result.State = domain.StateTagsSynced
		} else if outcome == domain.OutcomeSkipped {
			result.State = domain.StateTagsSkipped
		}
	}
}

func abortedResult(category domain.LocalCategory) *domain.CategoryResult {
	return &domain.CategoryResult{
		Category: category.Name,
		State:    domain.StatePending,
		Status:   domain.StatusAborted,
		Cookies:  domain.OutcomePending,
		Tags:     domain.OutcomePending,
	}
}
