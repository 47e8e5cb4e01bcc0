package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
)

type fakeRepo struct {
	rows    []*models.Subscription
	current map[uint]uint
	nextID  uint
	failGet error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{current: map[uint]uint{}}
}

func (r *fakeRepo) GetCurrent(_ context.Context, userID uint) (*models.Subscription, error) {
	if r.failGet != nil {
		return nil, r.failGet
	}
	id, ok := r.current[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, row := range r.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CreateCurrent(_ context.Context, sub *models.Subscription, previousID *uint) error {
	if previousID != nil {
		for _, row := range r.rows {
			if row.ID == *previousID && row.Status == models.SubscriptionStatusActive {
				row.Status = models.SubscriptionStatusExpired
			}
		}
	}
	r.nextID++
	sub.ID = r.nextID
	cp := *sub
	r.rows = append(r.rows, &cp)
	r.current[sub.UserID] = sub.ID
	return nil
}

func (r *fakeRepo) Save(_ context.Context, sub *models.Subscription) error {
	for i, row := range r.rows {
		if row.ID == sub.ID {
			cp := *sub
			r.rows[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memoryCache struct {
	items map[uint]snapshot
	loads int
}

func (c *memoryCache) load(_ context.Context, userID uint) (snapshot, bool, error) {
	c.loads++
	s, ok := c.items[userID]
	return s, ok, nil
}

func (c *memoryCache) store(_ context.Context, snap snapshot) error {
	c.items[snap.UserID] = snap
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID uint) error {
	delete(c.items, userID)
	return nil
}

func newTestService(now time.Time) (*Service, *fakeRepo, *memoryCache) {
	repo := newFakeRepo()
	c := &memoryCache{items: map[uint]snapshot{}}
	svc := NewService(repo, c)
	svc.now = func() time.Time { return now }
	return svc, repo, c
}

func TestTrialValidity(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(start)
	ctx := context.Background()

	sub, err := svc.CreateTrialSubscription(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "free", sub.Plan)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, start.Add(7*24*time.Hour), *sub.TrialEndsAt)

	st := svc.State(ctx, 1)
	assert.True(t, st.Loaded)
	assert.True(t, st.HasValidSubscription)
	assert.True(t, st.InTrial())

	// The cached snapshot is re-derived, so expiry is exact even on a cache hit.
	svc.now = func() time.Time { return *sub.TrialEndsAt }
	assert.False(t, svc.State(ctx, 1).HasValidSubscription)

	svc.now = func() time.Time { return sub.TrialEndsAt.Add(-time.Nanosecond) }
	assert.True(t, svc.State(ctx, 1).HasValidSubscription)
}

func TestTrialOnlyOnce(t *testing.T) {
	svc, _, _ := newTestService(time.Now())
	ctx := context.Background()

	_, err := svc.CreateTrialSubscription(ctx, 1)
	require.NoError(t, err)
	_, err = svc.CreateTrialSubscription(ctx, 1)
	assert.ErrorIs(t, err, ErrTrialAlreadyUsed)
}

func TestStateFailsClosed(t *testing.T) {
	svc, repo, _ := newTestService(time.Now())
	repo.failGet = errors.New("connection refused")

	st := svc.State(context.Background(), 9)
	assert.False(t, st.Loaded)
	assert.Error(t, st.Err)

	for _, f := range entitlements.Features() {
		d := svc.CheckAccess(context.Background(), 9, f)
		assert.Equal(t, entitlements.IsAlwaysAllowed(f), d.Allowed, "feature %s", f)
	}
}

func TestAbsentSubscriptionDeniesGatedFeatures(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	st := svc.State(context.Background(), 5)
	assert.True(t, st.Loaded)
	assert.False(t, st.HasValidSubscription)

	assert.False(t, svc.CheckAccess(context.Background(), 5, entitlements.FeatureTransactions).Allowed)
	assert.True(t, svc.CheckAccess(context.Background(), 5, entitlements.FeaturePlans).Allowed)
	assert.True(t, svc.CheckAccess(context.Background(), 5, entitlements.FeatureDashboard).Allowed)
}

func TestUpdateSubscriptionMovesPointer(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	svc, repo, c := newTestService(now)
	ctx := context.Background()

	trial, err := svc.CreateTrialSubscription(ctx, 3)
	require.NoError(t, err)
	_ = svc.State(ctx, 3)
	require.Contains(t, c.items, uint(3))

	sub, err := svc.UpdateSubscription(ctx, 3, "basic")
	require.NoError(t, err)
	assert.NotContains(t, c.items, uint(3), "plan change invalidates the cache")
	assert.Equal(t, sub.ID, repo.current[3])
	assert.Equal(t, trial.TrialEndsAt, sub.TrialEndsAt)

	st := svc.State(ctx, 3)
	assert.Equal(t, entitlements.PlanBasic, st.Plan)
	assert.True(t, svc.CheckAccess(ctx, 3, entitlements.FeatureLoans).Allowed)
	assert.False(t, svc.CheckAccess(ctx, 3, entitlements.FeatureGoals).Allowed)

	var expired int
	for _, row := range repo.rows {
		if row.Status == models.SubscriptionStatusExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired, "the superseded row is expired")

	_, err = svc.UpdateSubscription(ctx, 3, "gold")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestCancelKeepsPlanUntilPeriodEnd(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	_, err := svc.UpdateSubscription(ctx, 4, "premium")
	require.NoError(t, err)

	canceled, err := svc.CancelSubscription(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)

	assert.Equal(t, entitlements.PlanPremium, svc.State(ctx, 4).Plan)

	svc.now = func() time.Time { return now.AddDate(0, 1, 1) }
	st := svc.State(ctx, 4)
	assert.Equal(t, entitlements.PlanFree, st.Plan)
	assert.False(t, st.HasValidSubscription)

	_, err = svc.CancelSubscription(ctx, 99)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestDeriveStatuses(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		snap  snapshot
		plan  entitlements.Plan
		valid bool
	}{
		{name: "none", snap: snapshot{None: true}, plan: entitlements.PlanFree, valid: false},
		{name: "active basic", snap: snapshot{Plan: "basic", Status: "active"}, plan: entitlements.PlanBasic, valid: true},
		{name: "expired premium", snap: snapshot{Plan: "premium", Status: "expired"}, plan: entitlements.PlanFree, valid: false},
		{name: "unknown status", snap: snapshot{Plan: "premium", Status: "paused"}, plan: entitlements.PlanFree, valid: false},
		{name: "free in trial", snap: snapshot{Plan: "free", Status: "active", TrialEndsAt: &future}, plan: entitlements.PlanFree, valid: true},
		{name: "expired trial row", snap: snapshot{Plan: "free", Status: "expired", TrialEndsAt: &future}, plan: entitlements.PlanFree, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := derive(tt.snap, now)
			assert.Equal(t, tt.plan, st.Plan)
			assert.Equal(t, tt.valid, st.HasValidSubscription)
			assert.True(t, st.Loaded)
		})
	}
}
