package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PennyFox/internal/pkg/export"
	"github.com/ManuelReschke/PennyFox/internal/pkg/loans"
)

// LoanRefresher runs catch-up and automatic payment for one user.
type LoanRefresher interface {
	RepairLegacy(ctx context.Context, userID uint) (int, error)
	Refresh(ctx context.Context, userID uint) (*loans.RefreshReport, error)
}

// StatementExporter renders and uploads one monthly statement.
type StatementExporter interface {
	Export(ctx context.Context, userID uint, month string) (*export.Result, error)
}

// LoanRefreshHandler returns the handler for loan_refresh jobs. Per-loan
// failures fail the job so the retry picks them up; both steps are idempotent.
func LoanRefreshHandler(refresher LoanRefresher) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := DecodePayload[LoanRefreshPayload](job.Payload)
		if err != nil {
			return fmt.Errorf("invalid loan refresh payload: %w", err)
		}
		if payload.UserID == 0 {
			return fmt.Errorf("loan refresh payload without user_id")
		}

		if payload.Repair {
			fixed, err := refresher.RepairLegacy(ctx, payload.UserID)
			if err != nil {
				log.Warnf("[JobQueue] Legacy repair for user %d incomplete: %v", payload.UserID, err)
			} else if fixed > 0 {
				log.Infof("[JobQueue] Repaired %d legacy loans for user %d", fixed, payload.UserID)
			}
		}

		report, err := refresher.Refresh(ctx, payload.UserID)
		if err != nil {
			return err
		}
		log.Infof("[JobQueue] Loan refresh user=%d loans=%d credited=%d paid=%d healed=%d skipped=%d failures=%d",
			payload.UserID, report.Loans, report.Credited, len(report.Paid), len(report.Healed), len(report.Skipped), len(report.Failures))
		if len(report.Failures) > 0 {
			f := report.Failures[0]
			return fmt.Errorf("%d loans failed, first loan %d at %s: %s", len(report.Failures), f.LoanID, f.Stage, f.Error)
		}
		return nil
	}
}

// StatementExportHandler returns the handler for statement_export jobs.
func StatementExportHandler(exporter StatementExporter) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := DecodePayload[StatementExportPayload](job.Payload)
		if err != nil {
			return fmt.Errorf("invalid statement export payload: %w", err)
		}
		if payload.UserID == 0 || payload.Month == "" {
			return fmt.Errorf("statement export payload needs user_id and month")
		}
		res, err := exporter.Export(ctx, payload.UserID, payload.Month)
		if err != nil {
			return err
		}
		log.Infof("[JobQueue] Exported %d rows for user %d (%s) to %s", res.Rows, payload.UserID, payload.Month, res.Key)
		return nil
	}
}
