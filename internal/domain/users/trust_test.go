package users

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct{ byID map[string]User }

func (r *memUsers) Create(ctx context.Context, u User) error {
	r.byID[u.ID] = u
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, domainerr.ErrNotFound
	}
	return u, nil
}

func (r *memUsers) UpdateTrustScore(ctx context.Context, id string, score int, at time.Time) error {
	u, ok := r.byID[id]
	if !ok {
		return domainerr.ErrNotFound
	}
	u.TrustScore = score
	u.UpdatedAt = at
	r.byID[id] = u
	return nil
}

type memEvents struct {
	items []events.Event
	fail  error
}

func (r *memEvents) Append(ctx context.Context, e events.Event) error {
	if r.fail != nil {
		return r.fail
	}
	r.items = append(r.items, e)
	return nil
}
func (r *memEvents) ListByEntity(ctx context.Context, t events.EntityType, id string) ([]events.Event, error) {
	return r.items, nil
}
func (r *memEvents) List(ctx context.Context, f events.ListFilter) ([]events.Event, error) {
	return r.items, nil
}

type testTx struct {
	u *memUsers
	e *memEvents
}

func (t testTx) Users() Repository         { return t.u }
func (t testTx) Events() events.Repository { return t.e }

func newTx(score int) testTx {
	return testTx{
		u: &memUsers{byID: map[string]User{"u1": {ID: "u1", Role: RoleUser, TrustScore: score}}},
		e: &memEvents{},
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-20))
	assert.Equal(t, 100, Clamp(250))
	assert.Equal(t, 42, Clamp(42))
}

func TestTrustAdjuster_StaysInBounds(t *testing.T) {
	adj := NewTrustAdjuster()
	ctx := context.Background()

	for _, start := range []int{0, 1, 50, 99, 100} {
		for _, delta := range []int{0, 1, 5, 10, 15, 99, 100, 1000, math.MaxInt} {
			tx := newTx(start)
			up, err := adj.Increase(ctx, tx, "u1", delta, "test", "")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, up, MinTrustScore)
			assert.LessOrEqual(t, up, MaxTrustScore)

			tx = newTx(start)
			down, err := adj.Decrease(ctx, tx, "u1", delta, "test", "")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, down, MinTrustScore)
			assert.LessOrEqual(t, down, MaxTrustScore)
		}
	}
}

func TestTrustAdjuster_HugeDeltasSaturate(t *testing.T) {
	adj := NewTrustAdjuster()
	ctx := context.Background()

	tx := newTx(50)
	up, err := adj.Increase(ctx, tx, "u1", math.MaxInt, "test", "")
	require.NoError(t, err)
	assert.Equal(t, MaxTrustScore, up)
	assert.Equal(t, MaxTrustScore, tx.u.byID["u1"].TrustScore)
	require.Len(t, tx.e.items, 1)
	assert.Equal(t, 50, tx.e.items[0].Payload["oldScore"])
	assert.Equal(t, MaxTrustScore, tx.e.items[0].Payload["newScore"])

	tx = newTx(50)
	down, err := adj.Decrease(ctx, tx, "u1", math.MaxInt, "test", "")
	require.NoError(t, err)
	assert.Equal(t, MinTrustScore, down)
	assert.Equal(t, MinTrustScore, tx.u.byID["u1"].TrustScore)
}

func TestApplyDelta(t *testing.T) {
	assert.Equal(t, 100, applyDelta(50, math.MaxInt))
	assert.Equal(t, 0, applyDelta(50, math.MinInt))
	assert.Equal(t, 0, applyDelta(0, -1))
	assert.Equal(t, 100, applyDelta(100, 1))
	assert.Equal(t, 55, applyDelta(50, 5))
	assert.Equal(t, 40, applyDelta(50, -10))
}

func TestTrustAdjuster_PenalizeViolation_LogsOneEvent(t *testing.T) {
	tx := newTx(50)
	score, err := NewTrustAdjuster().PenalizeViolation(context.Background(), tx, "u1", "custody-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 40, score)
	assert.Equal(t, 40, tx.u.byID["u1"].TrustScore)

	require.Len(t, tx.e.items, 1)
	e := tx.e.items[0]
	assert.Equal(t, events.EventTrustScoreUpdated, e.Type)
	assert.Equal(t, events.EntityUser, e.EntityType)
	assert.Equal(t, "owner-1", e.ActorID)
	assert.Equal(t, 50, e.Payload["oldScore"])
	assert.Equal(t, 40, e.Payload["newScore"])
	assert.Equal(t, -ViolationPenalty, e.Payload["change"])
	assert.Equal(t, "Custody violation: custody-1", e.Payload["reason"])
}

func TestTrustAdjuster_PenaltyClampsAtZero(t *testing.T) {
	tx := newTx(5)
	score, err := NewTrustAdjuster().PenalizeViolation(context.Background(), tx, "u1", "custody-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	assert.Equal(t, "u1", tx.e.items[0].ActorID)
}

func TestTrustAdjuster_RewardClampsAtMax(t *testing.T) {
	tx := newTx(98)
	score, err := NewTrustAdjuster().RewardSuccessfulCustody(context.Background(), tx, "u1", "custody-1", "")
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestTrustAdjuster_Errors(t *testing.T) {
	adj := NewTrustAdjuster()
	ctx := context.Background()

	_, err := adj.Increase(ctx, newTx(50), "u1", -1, "x", "")
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))

	_, err = adj.Decrease(ctx, newTx(50), "missing", 1, "x", "")
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))

	tx := newTx(50)
	tx.e.fail = errors.New("event store down")
	_, err = adj.RewardAdoption(ctx, tx, "u1", "adoption-1", "")
	assert.True(t, errors.Is(err, domainerr.ErrInternal))
}

func TestService_Register_IsIdempotent(t *testing.T) {
	repo := &memUsers{byID: map[string]User{}}
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{ID: "u9", Email: "Ana@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, DefaultTrustScore, u.TrustScore)
	assert.Equal(t, "ana@example.com", u.Email)

	require.NoError(t, repo.UpdateTrustScore(ctx, "u9", 70, time.Now()))
	again, err := svc.Register(ctx, RegisterInput{ID: "u9", Role: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 70, again.TrustScore)
	assert.Equal(t, RoleUser, again.Role)

	_, err = svc.Register(ctx, RegisterInput{ID: "u10", Role: "root"})
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
}
