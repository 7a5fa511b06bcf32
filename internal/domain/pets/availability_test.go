package pets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fake source con contador de consultas
// -------------------------

type fakeAdoptions struct {
	adoption.Repository
	items   []adoption.Adoption
	queries int
}

func (f *fakeAdoptions) LatestForPet(ctx context.Context, petID string) (adoption.Adoption, error) {
	f.queries++
	var out []adoption.Adoption
	for _, a := range f.items {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return adoption.Adoption{}, domainerr.ErrNotFound
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out[0], nil
}

func (f *fakeAdoptions) ListForPets(ctx context.Context, petIDs []string) ([]adoption.Adoption, error) {
	f.queries++
	set := toSet(petIDs)
	var out []adoption.Adoption
	for _, a := range f.items {
		if _, ok := set[a.PetID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCustodies struct {
	custody.Repository
	items   []custody.Custody
	queries int
}

func (f *fakeCustodies) FindActiveForPet(ctx context.Context, petID string) (custody.Custody, error) {
	f.queries++
	for _, c := range f.items {
		if c.PetID == petID && c.Status == custody.StatusActive {
			return c, nil
		}
	}
	return custody.Custody{}, domainerr.ErrNotFound
}

func (f *fakeCustodies) ListActiveForPets(ctx context.Context, petIDs []string) ([]custody.Custody, error) {
	f.queries++
	set := toSet(petIDs)
	var out []custody.Custody
	for _, c := range f.items {
		if _, ok := set[c.PetID]; ok && c.Status == custody.StatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSource struct {
	a *fakeAdoptions
	c *fakeCustodies
}

func (s fakeSource) Adoptions() adoption.Repository { return s.a }
func (s fakeSource) Custodies() custody.Repository  { return s.c }

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

type eventsRepo struct{ items []events.Event }

func (r *eventsRepo) Append(ctx context.Context, e events.Event) error {
	r.items = append(r.items, e)
	return nil
}
func (r *eventsRepo) ListByEntity(ctx context.Context, t events.EntityType, id string) ([]events.Event, error) {
	return r.items, nil
}
func (r *eventsRepo) List(ctx context.Context, f events.ListFilter) ([]events.Event, error) {
	return r.items, nil
}

// -------------------------
// Tests
// -------------------------

func TestResolveFromRecords_Precedence(t *testing.T) {
	completed := &adoption.Adoption{Status: adoption.StatusCompleted}
	requested := &adoption.Adoption{Status: adoption.StatusRequested}
	rejected := &adoption.Adoption{Status: adoption.StatusRejected}
	active := &custody.Custody{Status: custody.StatusActive}
	returned := &custody.Custody{Status: custody.StatusReturned}

	assert.Equal(t, AvailabilityAvailable, ResolveFromRecords(nil, nil))
	assert.Equal(t, AvailabilityAdopted, ResolveFromRecords(completed, nil))
	assert.Equal(t, AvailabilityAdopted, ResolveFromRecords(completed, active))
	assert.Equal(t, AvailabilityAdopted, ResolveFromRecords(completed, returned))
	assert.Equal(t, AvailabilityInCustody, ResolveFromRecords(nil, active))
	assert.Equal(t, AvailabilityInCustody, ResolveFromRecords(requested, active))
	assert.Equal(t, AvailabilityPending, ResolveFromRecords(requested, nil))
	assert.Equal(t, AvailabilityAvailable, ResolveFromRecords(rejected, nil))
	assert.Equal(t, AvailabilityAvailable, ResolveFromRecords(nil, returned))

	for _, s := range []adoption.Status{
		adoption.StatusRequested, adoption.StatusPendingReview, adoption.StatusPending,
		adoption.StatusApproved, adoption.StatusEscrowFunded,
	} {
		assert.Equal(t, AvailabilityPending, ResolveFromRecords(&adoption.Adoption{Status: s}, nil), "%s", s)
	}
	for _, s := range []adoption.Status{adoption.StatusCancelled, adoption.StatusRefunded} {
		assert.Equal(t, AvailabilityAvailable, ResolveFromRecords(&adoption.Adoption{Status: s}, nil), "%s", s)
	}
}

func TestResolver_Resolve_UsesLatestAdoption(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := fakeSource{
		a: &fakeAdoptions{items: []adoption.Adoption{
			{ID: "old", PetID: "p1", Status: adoption.StatusCompleted, CreatedAt: base},
			{ID: "new", PetID: "p1", Status: adoption.StatusRejected, CreatedAt: base.Add(time.Hour)},
		}},
		c: &fakeCustodies{},
	}

	got, err := NewResolver().Resolve(context.Background(), src, "p1")
	require.NoError(t, err)
	assert.Equal(t, AvailabilityAvailable, got)
}

func TestResolver_Resolve_RequiresID(t *testing.T) {
	src := fakeSource{a: &fakeAdoptions{}, c: &fakeCustodies{}}
	_, err := NewResolver().Resolve(context.Background(), src, "  ")
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
}

func TestResolver_ResolveBatch_MatchesResolveWithTwoQueries(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	adoptionStatuses := []adoption.Status{
		"", adoption.StatusRequested, adoption.StatusPendingReview, adoption.StatusApproved,
		adoption.StatusEscrowFunded, adoption.StatusCompleted, adoption.StatusRejected,
		adoption.StatusCancelled, adoption.StatusRefunded,
	}
	custodyStatuses := []custody.Status{"", custody.StatusActive, custody.StatusReturned, custody.StatusViolation}

	fa := &fakeAdoptions{}
	fc := &fakeCustodies{}
	var ids []string
	n := 0
	for _, as := range adoptionStatuses {
		for _, cs := range custodyStatuses {
			id := fmt.Sprintf("pet-%d", n)
			n++
			ids = append(ids, id)
			if as != "" {
				// una adopción vieja completada y la última con el estado del caso
				fa.items = append(fa.items,
					adoption.Adoption{ID: id + "-a0", PetID: id, Status: adoption.StatusCancelled, CreatedAt: base},
					adoption.Adoption{ID: id + "-a1", PetID: id, Status: as, CreatedAt: base.Add(time.Minute)},
				)
			}
			if cs != "" {
				fc.items = append(fc.items, custody.Custody{ID: id + "-c", PetID: id, Status: cs})
			}
		}
	}
	src := fakeSource{a: fa, c: fc}
	r := NewResolver()

	batch, err := r.ResolveBatch(context.Background(), src, append(ids, ids[0], ""))
	require.NoError(t, err)
	assert.Equal(t, 1, fa.queries)
	assert.Equal(t, 1, fc.queries)
	assert.Len(t, batch, len(ids))

	for _, id := range ids {
		single, err := r.Resolve(context.Background(), src, id)
		require.NoError(t, err)
		assert.Equal(t, single, batch[id], "pet %s", id)
	}
}

func TestResolver_ResolveBatch_EmptyDoesNotQuery(t *testing.T) {
	fa := &fakeAdoptions{}
	fc := &fakeCustodies{}
	out, err := NewResolver().ResolveBatch(context.Background(), fakeSource{a: fa, c: fc}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, fa.queries+fc.queries)
}

func TestResolver_ResolveBatch_RejectsOversizedSets(t *testing.T) {
	fa := &fakeAdoptions{}
	fc := &fakeCustodies{}
	src := fakeSource{a: fa, c: fc}

	ids := make([]string, 0, MaxBatchSize+1)
	for i := 0; i <= MaxBatchSize; i++ {
		ids = append(ids, fmt.Sprintf("pet-%d", i))
	}
	_, err := NewResolver().ResolveBatch(context.Background(), src, ids)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
	assert.Zero(t, fa.queries+fc.queries)

	// Los duplicados no cuentan para el límite.
	out, err := NewResolver().ResolveBatch(context.Background(), src, append(ids[:MaxBatchSize], ids[0]))
	require.NoError(t, err)
	assert.Len(t, out, MaxBatchSize)
}

func TestResolver_LogAvailabilityChange_OnlyOnChange(t *testing.T) {
	repo := &eventsRepo{}
	log := events.NewService(repo)
	r := NewResolver()
	ctx := context.Background()

	wrote, err := r.LogAvailabilityChange(ctx, log, "p1", AvailabilityPending, AvailabilityPending, "ADOPTION_APPROVED", "u1")
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Empty(t, repo.items)

	wrote, err = r.LogAvailabilityChange(ctx, log, "p1", AvailabilityAvailable, AvailabilityPending, "ADOPTION_REQUESTED", "u1")
	require.NoError(t, err)
	assert.True(t, wrote)
	require.Len(t, repo.items, 1)

	e := repo.items[0]
	assert.Equal(t, events.EventPetStatusChanged, e.Type)
	assert.Equal(t, "AVAILABLE", e.Payload["oldStatus"])
	assert.Equal(t, "PENDING", e.Payload["newStatus"])
	assert.Equal(t, "ADOPTION_REQUESTED", e.Payload["triggerEvent"])
}
