package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Subscription is one plan grant for a user. Rows are never deleted; the
// authoritative row is the one referenced by UserSettings.CurrentSubscriptionID.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index:idx_subscriptions_user_created,priority:1" json:"user_id"`
	Plan                  string     `gorm:"type:varchar(20);not null;default:'free'" json:"plan" validate:"oneof=free basic premium"`
	Status                string     `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"oneof=active canceled expired"`
	TrialEndsAt           *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	CurrentPeriodStartsAt *time.Time `gorm:"type:timestamp;default:null" json:"current_period_starts_at,omitempty"`
	CurrentPeriodEndsAt   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_ends_at,omitempty"`
	CanceledAt            *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime;index:idx_subscriptions_user_created,priority:2" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// InTrial reports whether the trial window is still open at now. The
// comparison is strict: a trial that ends exactly at now is over.
func (s *Subscription) InTrial(now time.Time) bool {
	return s != nil && s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// PeriodOpen reports whether a canceled subscription still runs out its paid period.
func (s *Subscription) PeriodOpen(now time.Time) bool {
	return s != nil && s.CurrentPeriodEndsAt != nil && s.CurrentPeriodEndsAt.After(now)
}
