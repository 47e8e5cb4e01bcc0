package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSettingsPointTo(t *testing.T) {
	us := &UserSettings{UserID: 1}
	assert.False(t, us.HasCurrentSubscription())

	us.PointTo(42)
	require.NotNil(t, us.CurrentSubscriptionID)
	assert.Equal(t, uint(42), *us.CurrentSubscriptionID)
	assert.True(t, us.HasCurrentSubscription())

	var missing *UserSettings
	assert.False(t, missing.HasCurrentSubscription())
}

func TestSubscriptionTrialIsStrict(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ends := now

	sub := &Subscription{Plan: "free", TrialEndsAt: &ends}
	assert.False(t, sub.InTrial(now), "trial ending exactly now is over")

	later := now.Add(time.Second)
	sub.TrialEndsAt = &later
	assert.True(t, sub.InTrial(now))

	sub.TrialEndsAt = nil
	assert.False(t, sub.InTrial(now))
}

func TestLoanPaidHandlesLegacyRows(t *testing.T) {
	loan := &Loan{Installments: 12}
	assert.Equal(t, 0, loan.Paid())

	loan.SetPaid(5)
	require.NotNil(t, loan.PaidInstallments)
	assert.Equal(t, 5, loan.Paid())
}

func TestTransactionSignedAmount(t *testing.T) {
	expense := &Transaction{Type: TransactionTypeExpense, Amount: decimal.RequireFromString("25.90")}
	income := &Transaction{Type: TransactionTypeIncome, Amount: decimal.RequireFromString("1500")}

	assert.True(t, expense.SignedAmount().Equal(decimal.RequireFromString("-25.90")))
	assert.True(t, income.SignedAmount().Equal(decimal.RequireFromString("1500")))
	assert.Equal(t, "2024-04", PaymentPeriodOf(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)))
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		target, current string
		want            string
	}{
		{target: "1000", current: "250", want: "0.25"},
		{target: "1000", current: "1500", want: "1"},
		{target: "0", current: "10", want: "0"},
	}

	for _, tt := range tests {
		g := &Goal{TargetAmount: decimal.RequireFromString(tt.target), CurrentAmount: decimal.RequireFromString(tt.current)}
		if got := g.Progress(); !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("Progress(%s/%s) = %s, want %s", tt.current, tt.target, got, tt.want)
		}
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("Ana", "Ana@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))

	_, err = CreateUser("Ana", "not-an-email", "secret123")
	assert.Error(t, err)
}
