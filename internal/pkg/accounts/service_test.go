package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
)

type fixedPlan struct{ state subscription.State }

func (p fixedPlan) State(context.Context, uint) subscription.State { return p.state }

func loaded(plan entitlements.Plan) fixedPlan {
	return fixedPlan{state: subscription.State{Plan: plan, HasValidSubscription: true, Loaded: true}}
}

type memBanks struct {
	rows   []models.Bank
	nextID uint
}

func (m *memBanks) Create(_ context.Context, b *models.Bank) error {
	m.nextID++
	b.ID = m.nextID
	m.rows = append(m.rows, *b)
	return nil
}

func (m *memBanks) ListByUser(_ context.Context, userID uint) ([]models.Bank, error) {
	var out []models.Bank
	for _, b := range m.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBanks) CountByUser(ctx context.Context, userID uint) (int64, error) {
	l, _ := m.ListByUser(ctx, userID)
	return int64(len(l)), nil
}

func (m *memBanks) GetByID(_ context.Context, userID, id uint) (*models.Bank, error) {
	for _, b := range m.rows {
		if b.ID == id && b.UserID == userID {
			cp := b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBanks) Update(_ context.Context, b *models.Bank) error {
	for i := range m.rows {
		if m.rows[i].ID == b.ID {
			m.rows[i] = *b
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memBanks) Delete(_ context.Context, userID, id uint) error {
	for i, b := range m.rows {
		if b.ID == id && b.UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memBanks) GetPrimary(_ context.Context, userID uint) (*models.Bank, error) {
	for _, b := range m.rows {
		if b.UserID == userID && b.IsPrimary {
			cp := b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBanks) SetPrimary(_ context.Context, userID, id uint) error {
	found := false
	for _, b := range m.rows {
		if b.ID == id && b.UserID == userID {
			found = true
		}
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	for i := range m.rows {
		if m.rows[i].UserID == userID {
			m.rows[i].IsPrimary = m.rows[i].ID == id
		}
	}
	return nil
}

type memCards struct {
	rows []models.CreditCard
}

func (m *memCards) Create(_ context.Context, c *models.CreditCard) error {
	c.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memCards) ListByUser(context.Context, uint) ([]models.CreditCard, error) { return m.rows, nil }

func (m *memCards) CountByUser(context.Context, uint) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memCards) GetByID(_ context.Context, _, id uint) (*models.CreditCard, error) {
	for _, c := range m.rows {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCards) Update(context.Context, *models.CreditCard) error { return nil }

func (m *memCards) Delete(context.Context, uint, uint) error { return gorm.ErrRecordNotFound }

type memAlerts struct {
	count int64
	rows  []models.Alert
}

func (m *memAlerts) Create(_ context.Context, a *models.Alert) error {
	m.rows = append(m.rows, *a)
	m.count++
	return nil
}

func (m *memAlerts) ListByUser(context.Context, uint) ([]models.Alert, error) { return m.rows, nil }

func (m *memAlerts) CountByUser(context.Context, uint) (int64, error) { return m.count, nil }

func (m *memAlerts) GetByID(context.Context, uint, uint) (*models.Alert, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memAlerts) Update(context.Context, *models.Alert) error { return nil }

func (m *memAlerts) Delete(context.Context, uint, uint) error { return nil }

func card(name string) CardInput {
	return CardInput{Name: name, ClosingDay: 1, DueDay: 10}
}

func TestFourthCardOnBasicIsRefused(t *testing.T) {
	cards := &memCards{}
	svc := NewService(&memBanks{}, cards, &memAlerts{}, loaded(entitlements.PlanBasic))
	ctx := context.Background()

	for _, name := range []string{"Visa", "Master", "Elo"} {
		_, err := svc.CreateCard(ctx, 1, card(name))
		require.NoError(t, err)
	}

	_, err := svc.CreateCard(ctx, 1, card("Amex"))
	require.ErrorIs(t, err, entitlements.ErrLimitReached)
	var le *entitlements.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Limit)
	assert.Equal(t, entitlements.ResourceCreditCards, le.Resource)
	assert.Len(t, cards.rows, 3, "the refused card is not persisted")
}

func TestPremiumAlertsAreUnlimited(t *testing.T) {
	alerts := &memAlerts{count: 500}
	svc := NewService(&memBanks{}, &memCards{}, alerts, loaded(entitlements.PlanPremium))

	a, err := svc.CreateAlert(context.Background(), 1, AlertInput{Kind: models.AlertKindBudget, Title: "Food"})
	require.NoError(t, err)
	assert.True(t, a.Active)
}

func TestLimitsFailClosedWithoutState(t *testing.T) {
	svc := NewService(&memBanks{}, &memCards{}, &memAlerts{}, fixedPlan{state: subscription.State{Err: errors.New("db down")}})

	_, err := svc.CreateBank(context.Background(), 1, BankInput{Name: "Nubank"})
	assert.ErrorIs(t, err, ErrPlanUnavailable)
}

func TestFirstBankBecomesPrimary(t *testing.T) {
	banks := &memBanks{}
	svc := NewService(banks, &memCards{}, &memAlerts{}, loaded(entitlements.PlanPremium))
	ctx := context.Background()

	first, err := svc.CreateBank(ctx, 1, BankInput{Name: "Nubank"})
	require.NoError(t, err)
	second, err := svc.CreateBank(ctx, 1, BankInput{Name: "Itau"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.False(t, second.IsPrimary)

	require.NoError(t, svc.SetPrimary(ctx, 1, second.ID))
	p, err := svc.Primary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, p.ID)

	assert.ErrorIs(t, svc.SetPrimary(ctx, 2, second.ID), ErrNotFound)
}

func TestFreePlanAllowsOneBank(t *testing.T) {
	svc := NewService(&memBanks{}, &memCards{}, &memAlerts{}, loaded(entitlements.PlanFree))
	ctx := context.Background()

	_, err := svc.CreateBank(ctx, 1, BankInput{Name: "Nubank"})
	require.NoError(t, err)
	_, err = svc.CreateBank(ctx, 1, BankInput{Name: "Itau"})
	assert.ErrorIs(t, err, entitlements.ErrLimitReached)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(&memBanks{}, &memCards{}, &memAlerts{}, loaded(entitlements.PlanPremium))

	_, err := svc.CreateCard(context.Background(), 1, CardInput{Name: "Visa", LastDigits: "12a4", ClosingDay: 1, DueDay: 10})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateAlert(context.Background(), 1, AlertInput{Kind: "weather", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
}
