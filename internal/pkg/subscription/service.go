package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
)

// TrialLength is the duration of the free trial granted on sign-up.
const TrialLength = 7 * 24 * time.Hour

var (
	ErrTrialAlreadyUsed = errors.New("trial already used")
	ErrNoSubscription   = errors.New("no subscription")
	ErrUnknownPlan      = errors.New("unknown plan")
)

// Service derives subscription state and performs plan changes.
type Service struct {
	repo  repository.SubscriptionRepository
	cache StateCache
	now   func() time.Time
}

// NewService creates a subscription service. cache may be nil.
func NewService(repo repository.SubscriptionRepository, cache StateCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// State never returns an error: a failed load yields Loaded=false so every
// gated feature is denied.
func (s *Service) State(ctx context.Context, userID uint) State {
	if userID == 0 {
		return State{Plan: entitlements.PlanFree, StoredPlan: entitlements.PlanFree, Err: errors.New("user_id is required")}
	}

	if s.cache != nil {
		snap, ok, err := s.cache.load(ctx, userID)
		if err != nil {
			log.Warnf("[Subscription] Cache read failed for user %d: %v", userID, err)
		} else if ok {
			return derive(snap, s.now())
		}
	}

	sub, err := s.repo.GetCurrent(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Subscription] Failed to load subscription for user %d: %v", userID, err)
		return State{UserID: userID, Plan: entitlements.PlanFree, StoredPlan: entitlements.PlanFree, Err: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = nil
	}

	snap := snapshotOf(userID, sub)
	if s.cache != nil {
		if err := s.cache.store(ctx, snap); err != nil {
			log.Warnf("[Subscription] Cache write failed for user %d: %v", userID, err)
		}
	}
	return derive(snap, s.now())
}

// CheckAccess runs the feature gate against the user's current state.
func (s *Service) CheckAccess(ctx context.Context, userID uint, feature entitlements.Feature) entitlements.Decision {
	d := entitlements.Decide(feature, s.State(ctx, userID).Access())
	metrics.GateDecisions.WithLabelValues(string(d.Feature), string(d.Reason)).Inc()
	return d
}

// CreateTrialSubscription grants the 7-day trial to a user without any subscription history.
func (s *Service) CreateTrialSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	n, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	if n > 0 {
		return nil, ErrTrialAlreadyUsed
	}

	now := s.now()
	trialEnds := now.Add(TrialLength)
	sub := &models.Subscription{
		UserID:                userID,
		Plan:                  string(entitlements.PlanFree),
		Status:                models.SubscriptionStatusActive,
		TrialEndsAt:           &trialEnds,
		CurrentPeriodStartsAt: &now,
	}
	if err := s.repo.CreateCurrent(ctx, sub, nil); err != nil {
		return nil, fmt.Errorf("create trial: %w", err)
	}
	s.Invalidate(ctx, userID)
	log.Infof("[Subscription] Trial started for user %d until %s", userID, trialEnds.Format(time.RFC3339))
	return sub, nil
}

// UpdateSubscription switches the user to plan with a fresh one-month period.
// An open trial carries over to the new row.
func (s *Service) UpdateSubscription(ctx context.Context, userID uint, plan string) (*models.Subscription, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	if !entitlements.IsKnownPlan(plan) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	target := entitlements.NormalizePlan(plan)

	current, err := s.repo.GetCurrent(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load current subscription: %w", err)
	}

	now := s.now()
	sub := &models.Subscription{
		UserID:                userID,
		Plan:                  string(target),
		Status:                models.SubscriptionStatusActive,
		CurrentPeriodStartsAt: &now,
	}
	if target != entitlements.PlanFree {
		ends := now.AddDate(0, 1, 0)
		sub.CurrentPeriodEndsAt = &ends
	}

	var previousID *uint
	if current != nil {
		id := current.ID
		previousID = &id
		if current.InTrial(now) {
			sub.TrialEndsAt = current.TrialEndsAt
		}
	}

	if err := s.repo.CreateCurrent(ctx, sub, previousID); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	s.Invalidate(ctx, userID)
	log.Infof("[Subscription] User %d switched to plan %s", userID, target)
	return sub, nil
}

// CancelSubscription marks the current row canceled. Paid plans stay usable
// until the end of the running period.
func (s *Service) CancelSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	current, err := s.repo.GetCurrent(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("load current subscription: %w", err)
	}
	if current.Status == models.SubscriptionStatusCanceled {
		return current, nil
	}

	now := s.now()
	current.Status = models.SubscriptionStatusCanceled
	current.CanceledAt = &now
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	s.Invalidate(ctx, userID)
	log.Infof("[Subscription] User %d canceled subscription %d", userID, current.ID)
	return current, nil
}

// Invalidate drops the cached state for userID.
func (s *Service) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warnf("[Subscription] Cache invalidation failed for user %d: %v", userID, err)
	}
}
