package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

// exportCooldown keeps a user from queueing the same month twice in a row.
const exportCooldown = 5 * time.Minute

// HandleExportStatement queues the CSV export of ?month (default current).
func (h *Controller) HandleExportStatement(c *fiber.Ctx) error {
	if !h.deps.Exporter.Enabled() || h.deps.Queue == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "export_disabled", "statement export is not configured")
	}
	month := h.monthQuery(c)
	if _, _, err := ledger.MonthRange(month, h.deps.Location); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	uid := userID(c)
	payload := jobqueue.StatementExportPayload{UserID: uid, Month: month}
	job, err := h.deps.Queue.EnqueueUnique(ctx, jobqueue.JobTypeStatementExport, payload.ToMap(), fmt.Sprintf("%d:%s", uid, month), exportCooldown)
	if errors.Is(err, jobqueue.ErrDuplicateJob) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"month": month, "already_queued": true})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"month": month, "job_id": job.ID})
}
