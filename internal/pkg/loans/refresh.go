package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
)

// Refresh stages reported in Failure.Stage.
const (
	StageCatchUp = "catch_up"
	StageAutopay = "autopay"
	StageAdvance = "advance"
)

// Refresh brings every loan of the user up to today: overdue installments
// are credited, and loans due today are paid from the primary bank. One
// failing loan does not stop the others.
func (m *Manager) Refresh(ctx context.Context, userID uint) (*RefreshReport, error) {
	defer m.lock(userID)()

	list, err := m.loans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	today := m.today()
	report := &RefreshReport{Loans: len(list)}
	for _, loan := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		m.refreshLoan(ctx, loan, today, report)
	}

	if len(report.CaughtUp) > 0 || len(report.Paid) > 0 || len(report.Failures) > 0 {
		log.Infof("[Loans] Refresh user %d: %d loans, %d caught up (%d installments), %d paid, %d healed, %d skipped, %d failed",
			userID, report.Loans, len(report.CaughtUp), report.Credited, len(report.Paid), len(report.Healed), len(report.Skipped), len(report.Failures))
	}
	return report, nil
}

func (m *Manager) refreshLoan(ctx context.Context, loan models.Loan, today time.Time, report *RefreshReport) {
	wasPaidOff := loan.IsPaidOff()

	updated, credited, changed := CatchUp(loan, today)
	if changed {
		degraded, err := m.persistSchedule(ctx, &updated)
		if degraded {
			report.SchemaWarns++
		}
		if err != nil {
			log.Errorf("[Loans] Catch-up of loan %d failed: %v", loan.ID, err)
			report.fail(loan.ID, StageCatchUp, err)
			return
		}
	}
	if credited > 0 {
		report.CaughtUp = append(report.CaughtUp, loan.ID)
		report.Credited += credited
		metrics.InstallmentsCredited.WithLabelValues("catch_up").Add(float64(credited))
	}
	if !wasPaidOff && updated.IsPaidOff() {
		m.notifyPaidOff(ctx, updated)
	}

	if updated.IsPaidOff() || !DateOnly(updated.NextPaymentDate, today.Location()).Equal(today) {
		return
	}
	m.autopay(ctx, updated, report)
}

// autopay pays the installment due today. The (loan, YYYY-MM) pair is the
// idempotency key: a payment already on file only advances the schedule.
func (m *Manager) autopay(ctx context.Context, loan models.Loan, report *RefreshReport) {
	due := loan.NextPaymentDate
	period := models.PaymentPeriodOf(due)

	exists, err := m.transactions.LoanPaymentExists(ctx, loan.ID, period)
	if err != nil {
		metrics.Autopay.WithLabelValues(metrics.AutopayFailed).Inc()
		report.fail(loan.ID, StageAutopay, err)
		return
	}
	if exists {
		metrics.Autopay.WithLabelValues(metrics.AutopayAlreadyExists).Inc()
		if m.advance(ctx, loan, report) {
			report.Healed = append(report.Healed, loan.ID)
		}
		return
	}

	bank, err := m.banks.GetPrimary(ctx, loan.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Autopay.WithLabelValues(metrics.AutopayNoPrimaryBank).Inc()
		report.Skipped = append(report.Skipped, loan.ID)
		log.Warnf("[Loans] Autopay of loan %d skipped: user %d has no primary bank", loan.ID, loan.UserID)
		m.notifyOnce(ctx, models.Notification{
			UserID:      loan.UserID,
			Type:        models.NotificationAutopaySkipped,
			Level:       models.NotificationLevelWarning,
			ReferenceID: loan.ID,
			Content:     fmt.Sprintf("The installment of %q due %s was not paid automatically: set a primary bank account.", loan.Description, due.Format("2006-01-02")),
		})
		return
	}
	if err != nil {
		metrics.Autopay.WithLabelValues(metrics.AutopayFailed).Inc()
		report.fail(loan.ID, StageAutopay, err)
		return
	}

	bankID, loanID := bank.ID, loan.ID
	payment := &models.Transaction{
		UserID:        loan.UserID,
		Type:          models.TransactionTypeExpense,
		Amount:        loan.InstallmentValue,
		Description:   fmt.Sprintf("%s (%d/%d)", loan.Description, EffectivePaid(loan)+1, loan.Installments),
		Date:          due,
		BankID:        &bankID,
		Source:        models.TransactionSourceLoan,
		LoanID:        &loanID,
		PaymentPeriod: &period,
	}
	if err := m.transactions.CreateWithBalance(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			// Another writer recorded the period between the check and the insert.
			metrics.Autopay.WithLabelValues(metrics.AutopayAlreadyExists).Inc()
			if m.advance(ctx, loan, report) {
				report.Healed = append(report.Healed, loan.ID)
			}
			return
		}
		metrics.Autopay.WithLabelValues(metrics.AutopayFailed).Inc()
		log.Errorf("[Loans] Autopay of loan %d failed: %v", loan.ID, err)
		report.fail(loan.ID, StageAutopay, err)
		return
	}

	metrics.Autopay.WithLabelValues(metrics.AutopayCreated).Inc()
	log.Infof("[Loans] Autopay recorded transaction %d for loan %d period %s from bank %d", payment.ID, loan.ID, period, bank.ID)
	if !m.advance(ctx, loan, report) {
		return
	}
	report.Paid = append(report.Paid, loan.ID)
	m.notify(ctx, models.Notification{
		UserID:      loan.UserID,
		Type:        models.NotificationAutopayCreated,
		Level:       models.NotificationLevelInfo,
		ReferenceID: loan.ID,
		Content:     fmt.Sprintf("Paid %s for %q from %s.", loan.InstallmentValue.StringFixed(2), loan.Description, bank.Name),
	})
}

// advance moves the schedule one installment on after a payment is on file.
func (m *Manager) advance(ctx context.Context, loan models.Loan, report *RefreshReport) bool {
	next := Advance(loan)
	degraded, err := m.persistSchedule(ctx, &next)
	if degraded {
		report.SchemaWarns++
	}
	if err != nil {
		log.Errorf("[Loans] Advancing loan %d failed: %v", loan.ID, err)
		report.fail(loan.ID, StageAdvance, err)
		return false
	}
	metrics.InstallmentsCredited.WithLabelValues("autopay").Inc()
	if next.IsPaidOff() {
		m.notifyPaidOff(ctx, next)
	}
	return true
}

// persistSchedule writes the schedule fields. When the database lacks the
// paid_installments column the write is retried without it and degraded is true.
func (m *Manager) persistSchedule(ctx context.Context, loan *models.Loan) (degraded bool, err error) {
	err = m.loans.UpdateSchedule(ctx, loan)
	if err == nil || !repository.IsMissingColumn(err) {
		return false, err
	}
	m.schemaWarning(ctx, loan.UserID, loan.ID, err)
	return true, m.loans.UpdateSchedule(ctx, loan, repository.ColumnPaidInstallments)
}

// RepairLegacy fills or raises paid_installments from the schedule. It never
// lowers a stored count.
func (m *Manager) RepairLegacy(ctx context.Context, userID uint) (int, error) {
	defer m.lock(userID)()

	list, err := m.loans.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list loans: %w", err)
	}

	var repaired int
	var errs []error
	for _, loan := range list {
		paid := RepairPaidInstallments(loan)
		status := StatusFor(paid, loan.Installments)
		if loan.PaidInstallments != nil && *loan.PaidInstallments == paid && loan.Status == status {
			continue
		}
		before := loan.Paid()
		loan.SetPaid(paid)
		loan.Status = status
		if _, err := m.persistSchedule(ctx, &loan); err != nil {
			errs = append(errs, fmt.Errorf("loan %d: %w", loan.ID, err))
			continue
		}
		if paid > before {
			metrics.InstallmentsCredited.WithLabelValues("repair").Add(float64(paid - before))
		}
		repaired++
	}
	if repaired > 0 {
		log.Infof("[Loans] Repaired %d legacy loans of user %d", repaired, userID)
	}
	return repaired, errors.Join(errs...)
}

func (m *Manager) schemaWarning(ctx context.Context, userID, loanID uint, cause error) {
	log.Warnf("[Loans] Column %s is missing, writing loan %d without it: %v", repository.ColumnPaidInstallments, loanID, cause)
	m.notifyOnce(ctx, models.Notification{
		UserID:      userID,
		Type:        models.NotificationSchemaWarning,
		Level:       models.NotificationLevelWarning,
		ReferenceID: loanID,
		Content:     "Installment progress could not be saved. Run the pending database migrations.",
	})
}

func (m *Manager) notifyPaidOff(ctx context.Context, loan models.Loan) {
	m.notify(ctx, models.Notification{
		UserID:      loan.UserID,
		Type:        models.NotificationLoanPaidOff,
		Level:       models.NotificationLevelInfo,
		ReferenceID: loan.ID,
		Content:     fmt.Sprintf("%q is paid off.", loan.Description),
	})
}

func (m *Manager) notify(ctx context.Context, n models.Notification) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, n); err != nil {
		log.Warnf("[Loans] Notification %s for user %d failed: %v", n.Type, n.UserID, err)
	}
}

func (m *Manager) notifyOnce(ctx context.Context, n models.Notification) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyOnce(ctx, n); err != nil {
		log.Warnf("[Loans] Notification %s for user %d failed: %v", n.Type, n.UserID, err)
	}
}
