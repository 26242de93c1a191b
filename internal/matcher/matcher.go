// Package matcher resolves each local consent category to the remote category
// that its cookies and tags are written to.
package matcher

import (
	"context"
	"fmt"
	"strings"

	"consent/sync/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Target is the remote category a local category syncs into.
type Target struct {
	Index      int
	Category   domain.LocalCategory
	RemoteID   domain.CategoryID
	RemoteName string
	Created    bool
}

type Creator interface {
	CreateCategory(ctx context.Context, category domain.NewCategory) (domain.CategoryID, error)
}

type Lister interface {
	ListCategories(ctx context.Context) ([]domain.RemoteCategory, error)
}

// Resolver maps the local category at a position to its remote target.
type Resolver interface {
	Mode() domain.Mode
	Resolve(ctx context.Context, index int, category domain.LocalCategory) (Target, error)
}

type createResolver struct {
	creator Creator
}

// NewCreateResolver returns a resolver that creates one remote category per
// local category. It never looks at selected names.
func NewCreateResolver(creator Creator) Resolver {
	return &createResolver{creator: creator}
}

func (r *createResolver) Mode() domain.Mode {
	return domain.ModeImport
}

func (r *createResolver) Resolve(ctx context.Context, index int, category domain.LocalCategory) (Target, error) {
	id, err := r.creator.CreateCategory(ctx, domain.NewApprovedCategory(category.Name))
	if err != nil {
		return Target{}, fmt.Errorf("failed to create consent category %q: %w", category.Name, err)
	}

	if id == "" {
		return Target{}, fmt.Errorf("consent category %q was created without an id", category.Name)
	}

	return Target{
		Index:      index,
		Category:   category,
		RemoteID:   id,
		RemoteName: category.Name,
		Created:    true,
	}, nil
}

type reconcileResolver struct {
	selected []string
	remotes  []domain.RemoteCategory
	claimed  map[domain.CategoryID]string
}

// NewReconcileResolver checks the selected names against the local category
// count and then fetches the remote listing once. The arity check runs
// before any remote call.
func NewReconcileResolver(ctx context.Context, lister Lister, localCount int, selected []string) (Resolver, error) {
	if err := CheckArity(localCount, selected); err != nil {
		return nil, err
	}

	remotes, err := lister.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote consent categories: %w", err)
	}

	log.Infof("🔄 Found %d remote consent categories", len(remotes))

	return &reconcileResolver{
		selected: append([]string(nil), selected...),
		remotes:  remotes,
		claimed:  make(map[domain.CategoryID]string),
	}, nil
}

func (r *reconcileResolver) Mode() domain.Mode {
	return domain.ModeUpdate
}

func (r *reconcileResolver) Resolve(_ context.Context, index int, category domain.LocalCategory) (Target, error) {
	if index < 0 || index >= len(r.selected) {
		return Target{}, &domain.ArityMismatchError{Expected: index + 1, Got: len(r.selected)}
	}

	selected := r.selected[index]
	remote, ok := Find(r.remotes, selected)
	if !ok {
		return Target{}, &domain.MatchError{Index: index, Category: category.Name, SelectedName: selected}
	}

	// Each remote category receives at most one local category per run.
	if owner, taken := r.claimed[remote.ID]; taken {
		return Target{}, &domain.ConflictError{
			Index:        index,
			Category:     category.Name,
			SelectedName: selected,
			RemoteID:     remote.ID,
			ClaimedBy:    owner,
		}
	}
	r.claimed[remote.ID] = category.Name

	return Target{
		Index:      index,
		Category:   category,
		RemoteID:   remote.ID,
		RemoteName: remote.Name,
	}, nil
}

// CheckArity fails unless there is exactly one selected name per local category.
func CheckArity(localCount int, selected []string) error {
	if len(selected) != localCount {
		return &domain.ArityMismatchError{Expected: localCount, Got: len(selected)}
	}
	return nil
}

// Find returns the first remote category, in listing order, whose name
// contains selected. Matching is case-sensitive and an empty name never matches.
func Find(remotes []domain.RemoteCategory, selected string) (domain.RemoteCategory, bool) {
	if selected == "" {
		return domain.RemoteCategory{}, false
	}

	var (
		found   domain.RemoteCategory
		matches int
	)
	for _, remote := range remotes {
		if !strings.Contains(remote.Name, selected) {
			continue
		}
		if matches == 0 {
			found = remote
		}
		matches++
	}

	if matches > 1 {
		log.Warnf("⚠️ %q matches %d remote categories, using %q (id %s)", selected, matches, found.Name, found.ID)
	}

	return found, matches > 0
}

// ParseSelectedNames splits a comma-separated list and trims each name.
func ParseSelectedNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names
}
