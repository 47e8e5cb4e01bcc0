package loans

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/PennyFox/app/models"
)

// DateOnly drops the time of day, keeping the calendar date as written in t.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = now.Location()
	}
	return DateOnly(now.In(loc), loc)
}

// AddMonths moves d by n calendar months keeping the day of month, clamped to
// the last day of shorter months: Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	if last := daysIn(first.Year(), first.Month(), d.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// MonthsBetween counts whole months from a to b. It is negative when b is before a.
func MonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return -MonthsBetween(b, a)
	}
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	n := (by-ay)*12 + int(bm-am)
	if AddMonths(a, n).After(b) {
		n--
	}
	return n
}

// StatusFor keeps quitado in lockstep with the paid count.
func StatusFor(paid, installments int) string {
	if installments > 0 && paid >= installments {
		return models.LoanStatusPaidOff
	}
	return models.LoanStatusCurrent
}

// DerivedPaidInstallments estimates the paid count of a legacy row from its schedule.
func DerivedPaidInstallments(start, next time.Time, installments int) int {
	n := MonthsBetween(DateOnly(start, nil), DateOnly(next, start.Location()))
	return clamp(n, 0, installments)
}

// EffectivePaid is the stored count, or the schedule-derived count for legacy rows.
func EffectivePaid(l models.Loan) int {
	if l.PaidInstallments != nil {
		return clamp(*l.PaidInstallments, 0, l.Installments)
	}
	return DerivedPaidInstallments(l.StartDate, l.NextPaymentDate, l.Installments)
}

// RepairPaidInstallments returns max(stored, derived) so a repair never
// lowers a user's progress.
func RepairPaidInstallments(l models.Loan) int {
	derived := DerivedPaidInstallments(l.StartDate, l.NextPaymentDate, l.Installments)
	if l.PaidInstallments == nil {
		return derived
	}
	stored := clamp(*l.PaidInstallments, 0, l.Installments)
	if stored > derived {
		return stored
	}
	return derived
}

// InferStartDate backs the first installment out of the next due date.
func InferStartDate(next time.Time, paid int) time.Time {
	return AddMonths(next, -paid)
}

// CatchUp folds installments whose due date passed before today into the
// paid count. At least one installment is credited when today is after the
// due date; the next date becomes the first same-day occurrence on or
// after today, so an installment due today is left for autopay. Running it
// again with the same today changes nothing.
func CatchUp(l models.Loan, today time.Time) (models.Loan, int, bool) {
	loc := today.Location()
	today = DateOnly(today, loc)
	next := DateOnly(l.NextPaymentDate, loc)

	paid := EffectivePaid(l)
	status := StatusFor(paid, l.Installments)
	changed := l.PaidInstallments == nil || *l.PaidInstallments != paid || l.Status != status

	if status == models.LoanStatusPaidOff || !today.After(next) {
		l.SetPaid(paid)
		l.Status = status
		return l, 0, changed
	}

	elapsed := MonthsBetween(next, today)
	if elapsed < 1 {
		elapsed = 1
	}
	credited := elapsed
	if paid+credited > l.Installments {
		credited = l.Installments - paid
	}
	paid += credited

	k := elapsed
	for AddMonths(next, k).Before(today) {
		k++
	}

	l.SetPaid(paid)
	l.NextPaymentDate = AddMonths(next, k)
	l.Status = StatusFor(paid, l.Installments)
	return l, credited, true
}

// NormalizeEdit applies the edit rule: a past next date is folded through
// CatchUp so the stored schedule never points into the past.
func NormalizeEdit(l models.Loan, today time.Time) models.Loan {
	out, _, _ := CatchUp(l, today)
	return out
}

// Advance records one paid installment and moves the due date one month on.
func Advance(l models.Loan) models.Loan {
	paid := EffectivePaid(l)
	if paid < l.Installments {
		paid++
	}
	l.SetPaid(paid)
	l.NextPaymentDate = AddMonths(DateOnly(l.NextPaymentDate, nil), 1)
	l.Status = StatusFor(paid, l.Installments)
	return l
}

// Remaining returns the open installment count and amount.
func Remaining(l models.Loan) (int, decimal.Decimal) {
	left := l.Installments - EffectivePaid(l)
	if left < 0 {
		left = 0
	}
	return left, l.InstallmentValue.Mul(decimal.NewFromInt(int64(left)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
