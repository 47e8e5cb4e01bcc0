package loans

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PennyFox/app/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func loanWith(paid *int, installments int, next time.Time) models.Loan {
	l := models.Loan{
		ID:               1,
		UserID:           1,
		Description:      "Car",
		Installments:     installments,
		InstallmentValue: decimal.NewFromInt(500),
		TotalAmount:      decimal.NewFromInt(int64(500 * installments)),
		NextPaymentDate:  next,
		Status:           models.LoanStatusCurrent,
		PaidInstallments: paid,
	}
	if paid != nil {
		l.StartDate = InferStartDate(next, *paid)
	}
	return l
}

func intp(v int) *int { return &v }

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{day(2024, 1, 31), 1, day(2024, 2, 29)},
		{day(2023, 1, 31), 1, day(2023, 2, 28)},
		{day(2024, 3, 31), -1, day(2024, 2, 29)},
		{day(2024, 12, 15), 1, day(2025, 1, 15)},
		{day(2024, 5, 10), -5, day(2023, 12, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonths(tt.from, tt.n), "%s %+d", tt.from.Format("2006-01-02"), tt.n)
	}
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 3, MonthsBetween(day(2024, 1, 10), day(2024, 4, 15)))
	assert.Equal(t, 2, MonthsBetween(day(2024, 1, 10), day(2024, 4, 9)))
	assert.Equal(t, 0, MonthsBetween(day(2024, 1, 10), day(2024, 1, 31)))
	assert.Equal(t, 1, MonthsBetween(day(2024, 1, 31), day(2024, 2, 29)))
	assert.Equal(t, -3, MonthsBetween(day(2024, 4, 15), day(2024, 1, 10)))
}

func TestCatchUpCreditsElapsedInstallments(t *testing.T) {
	l := loanWith(intp(5), 24, day(2024, 1, 10))

	out, credited, changed := CatchUp(l, day(2024, 4, 15))
	assert.True(t, changed)
	assert.Equal(t, 3, credited)
	assert.Equal(t, 8, out.Paid())
	assert.Equal(t, day(2024, 5, 10), out.NextPaymentDate)
	assert.Equal(t, models.LoanStatusCurrent, out.Status)

	again, credited, changed := CatchUp(out, day(2024, 4, 15))
	assert.False(t, changed, "a second run on the same day is a no-op")
	assert.Zero(t, credited)
	assert.Equal(t, out, again)
}

func TestCatchUpPaysOffLastInstallment(t *testing.T) {
	l := loanWith(intp(9), 10, day(2024, 3, 10))

	out, credited, _ := CatchUp(l, day(2024, 4, 10))
	assert.Equal(t, 1, credited)
	assert.Equal(t, 10, out.Paid())
	assert.Equal(t, models.LoanStatusPaidOff, out.Status)
}

func TestCatchUpNeverExceedsInstallments(t *testing.T) {
	l := loanWith(intp(8), 10, day(2023, 1, 5))

	out, credited, _ := CatchUp(l, day(2024, 6, 1))
	assert.Equal(t, 2, credited)
	assert.Equal(t, 10, out.Paid())
	assert.Equal(t, models.LoanStatusPaidOff, out.Status)
}

func TestCatchUpLeavesFutureAndDueTodayAlone(t *testing.T) {
	l := loanWith(intp(2), 12, day(2024, 4, 15))

	out, credited, changed := CatchUp(l, day(2024, 4, 15))
	assert.False(t, changed)
	assert.Zero(t, credited)
	assert.Equal(t, day(2024, 4, 15), out.NextPaymentDate)
}

func TestCatchUpCreditsAtLeastOneWholeMonthShort(t *testing.T) {
	l := loanWith(intp(2), 12, day(2024, 4, 10))

	out, credited, _ := CatchUp(l, day(2024, 4, 20))
	assert.Equal(t, 1, credited)
	assert.Equal(t, 3, out.Paid())
	assert.Equal(t, day(2024, 5, 10), out.NextPaymentDate)
}

func TestCatchUpKeepsOccurrenceDueToday(t *testing.T) {
	l := loanWith(intp(2), 12, day(2024, 3, 10))

	out, credited, changed := CatchUp(l, day(2024, 4, 10))
	assert.True(t, changed)
	assert.Equal(t, 1, credited, "only the March installment is overdue")
	assert.Equal(t, 3, out.Paid())
	assert.Equal(t, day(2024, 4, 10), out.NextPaymentDate)

	again, credited, changed := CatchUp(out, day(2024, 4, 10))
	assert.False(t, changed)
	assert.Zero(t, credited)
	assert.Equal(t, out, again)
}

func TestCatchUpNormalizesInconsistentStatus(t *testing.T) {
	l := loanWith(intp(12), 12, day(2030, 1, 1))
	l.Status = models.LoanStatusCurrent

	out, credited, changed := CatchUp(l, day(2024, 1, 1))
	assert.True(t, changed)
	assert.Zero(t, credited)
	assert.Equal(t, models.LoanStatusPaidOff, out.Status)
}

func TestLegacyRowsDerivePaidFromSchedule(t *testing.T) {
	l := loanWith(nil, 24, day(2024, 6, 10))
	l.StartDate = day(2024, 1, 10)

	assert.Equal(t, 5, EffectivePaid(l))
	assert.Equal(t, 5, RepairPaidInstallments(l))

	l.PaidInstallments = intp(3)
	assert.Equal(t, 5, RepairPaidInstallments(l), "repair raises a stale count")

	l.PaidInstallments = intp(7)
	assert.Equal(t, 7, RepairPaidInstallments(l), "repair never lowers a count")
}

func TestAdvance(t *testing.T) {
	l := loanWith(intp(9), 10, day(2024, 1, 31))

	out := Advance(l)
	assert.Equal(t, 10, out.Paid())
	assert.Equal(t, day(2024, 2, 29), out.NextPaymentDate)
	assert.Equal(t, models.LoanStatusPaidOff, out.Status)
}

func TestRemaining(t *testing.T) {
	l := loanWith(intp(4), 10, day(2024, 1, 1))
	left, amount := Remaining(l)
	assert.Equal(t, 6, left)
	assert.True(t, decimal.NewFromInt(3000).Equal(amount))
}

func TestStatusMatchesPaidCountAfterCatchUp(t *testing.T) {
	today := day(2024, 7, 1)
	for paid := 0; paid <= 12; paid++ {
		for offset := -14; offset <= 2; offset++ {
			l := loanWith(intp(paid), 12, AddMonths(today, offset))
			out, _, _ := CatchUp(l, today)
			require.LessOrEqual(t, out.Paid(), 12)
			assert.Equal(t, out.Paid() >= 12, out.IsPaidOff(), "paid=%d offset=%d", paid, offset)
			if !out.IsPaidOff() {
				assert.False(t, out.NextPaymentDate.Before(today), "paid=%d offset=%d", paid, offset)
			}
		}
	}
}
