package matcher

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"consent/sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	remotes    []domain.RemoteCategory
	listCalls  int
	created    []domain.NewCategory
	createErrs map[string]error
	nextID     int
}

func (f *fakeRemote) ListCategories(context.Context) ([]domain.RemoteCategory, error) {
	f.listCalls++
	return f.remotes, nil
}

func (f *fakeRemote) CreateCategory(_ context.Context, c domain.NewCategory) (domain.CategoryID, error) {
	f.created = append(f.created, c)
	if err := f.createErrs[c.Name]; err != nil {
		return "", err
	}
	f.nextID++
	return domain.CategoryID(strconv.Itoa(f.nextID)), nil
}

func locals(names ...string) []domain.LocalCategory {
	out := make([]domain.LocalCategory, len(names))
	for i, n := range names {
		out[i] = domain.LocalCategory{Name: n}
	}
	return out
}

func TestReconcileResolver_MatchesBySubstring(t *testing.T) {
	remote := &fakeRemote{remotes: []domain.RemoteCategory{
		{ID: "1", Name: "Marketing Cookies - EU"},
		{ID: "2", Name: "Site Analytics v2"},
	}}
	cats := locals("Marketing", "Analytics")

	r, err := NewReconcileResolver(context.Background(), remote, len(cats), []string{"Marketing Cookies", "Site Analytics"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeUpdate, r.Mode())

	var ids []domain.CategoryID
	for i, c := range cats {
		target, err := r.Resolve(context.Background(), i, c)
		require.NoError(t, err)
		assert.False(t, target.Created)
		ids = append(ids, target.RemoteID)
	}
	assert.Equal(t, []domain.CategoryID{"1", "2"}, ids)
	assert.Equal(t, 1, remote.listCalls)
}

func TestReconcileResolver_ArityMismatchBeforeRemoteCall(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
	}{
		{name: "too few", selected: []string{"Marketing"}},
		{name: "too many", selected: []string{"a", "b", "c"}},
		{name: "none", selected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			_, err := NewReconcileResolver(context.Background(), remote, 2, tt.selected)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrArityMismatch))
			assert.Equal(t, 0, remote.listCalls)
		})
	}
}

func TestReconcileResolver_NoMatch(t *testing.T) {
	remote := &fakeRemote{remotes: []domain.RemoteCategory{{ID: "1", Name: "Marketing"}}}

	r, err := NewReconcileResolver(context.Background(), remote, 1, []string{"marketing"})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), 0, domain.LocalCategory{Name: "Marketing"})
	require.Error(t, err)

	var merr *domain.MatchError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "marketing", merr.SelectedName)
	assert.Equal(t, 0, merr.Index)
}

func TestReconcileResolver_SameRemoteTwiceConflicts(t *testing.T) {
	remote := &fakeRemote{remotes: []domain.RemoteCategory{
		{ID: "1", Name: "Marketing Cookies - EU"},
		{ID: "2", Name: "Analytics"},
	}}
	cats := locals("Marketing", "Ads")

	r, err := NewReconcileResolver(context.Background(), remote, len(cats), []string{"Marketing", "Marketing Cookies"})
	require.NoError(t, err)

	first, err := r.Resolve(context.Background(), 0, cats[0])
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryID("1"), first.RemoteID)

	_, err = r.Resolve(context.Background(), 1, cats[1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMatchConflict))

	var cerr *domain.ConflictError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 1, cerr.Index)
	assert.Equal(t, "Ads", cerr.Category)
	assert.Equal(t, domain.CategoryID("1"), cerr.RemoteID)
	assert.Equal(t, "Marketing", cerr.ClaimedBy)
}

func TestFind(t *testing.T) {
	remotes := []domain.RemoteCategory{
		{ID: "10", Name: "Analytics - US"},
		{ID: "11", Name: "Analytics - EU"},
		{ID: "12", Name: "Functional"},
	}

	tests := []struct {
		name     string
		selected string
		wantID   domain.CategoryID
		wantOK   bool
	}{
		{name: "first match wins", selected: "Analytics", wantID: "10", wantOK: true},
		{name: "exact", selected: "Analytics - EU", wantID: "11", wantOK: true},
		{name: "case sensitive", selected: "functional", wantOK: false},
		{name: "empty never matches", selected: "", wantOK: false},
		{name: "missing", selected: "Marketing", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Find(remotes, tt.selected)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestCreateResolver(t *testing.T) {
	remote := &fakeRemote{createErrs: map[string]error{"Broken": errors.New("boom")}}
	r := NewCreateResolver(remote)
	assert.Equal(t, domain.ModeImport, r.Mode())

	target, err := r.Resolve(context.Background(), 0, domain.LocalCategory{Name: "Marketing"})
	require.NoError(t, err)
	assert.True(t, target.Created)
	assert.Equal(t, domain.CategoryID("1"), target.RemoteID)
	assert.Equal(t, domain.NewCategory{Name: "Marketing", Notes: "", Type: "approved", IsDefaultCC: false}, remote.created[0])

	_, err = r.Resolve(context.Background(), 1, domain.LocalCategory{Name: "Broken"})
	assert.Error(t, err)
	assert.Equal(t, 0, remote.listCalls)
}

func TestParseSelectedNames(t *testing.T) {
	assert.Equal(t, []string{"Marketing Cookies", "Site Analytics"}, ParseSelectedNames(" Marketing Cookies , Site Analytics"))
	assert.Equal(t, []string{}, ParseSelectedNames("  "))
	assert.Equal(t, []string{"a", ""}, ParseSelectedNames("a,"))
}
