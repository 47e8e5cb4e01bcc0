package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
)

// SendFunc delivers an email. mail.SendMail satisfies it.
type SendFunc func(to, subject, body string) error

// Notifier stores notifications and mails warnings to users who opted in.
type Notifier struct {
	repo     repository.NotificationRepository
	users    repository.UserRepository
	settings SettingsLookup
	send     SendFunc
	loc      *time.Location
	now      func() time.Time
}

// SettingsLookup tells whether the user accepts notification emails.
type SettingsLookup func(ctx context.Context, userID uint) bool

// New builds a Notifier. send may be nil to disable email.
func New(repo repository.NotificationRepository, users repository.UserRepository, settings SettingsLookup, send SendFunc, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{repo: repo, users: users, settings: settings, send: send, loc: loc, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, msg models.Notification) error {
	if msg.Level == "" {
		msg.Level = models.NotificationLevelInfo
	}
	if err := n.repo.Create(ctx, &msg); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if msg.IsWarning() {
		n.email(ctx, msg)
	}
	return nil
}

// NotifyOnce skips msg when the same type and reference was stored since
// midnight in the configured location.
func (n *Notifier) NotifyOnce(ctx context.Context, msg models.Notification) error {
	now := n.now().In(n.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.loc)
	seen, err := n.repo.ExistsSince(ctx, msg.UserID, msg.Type, msg.ReferenceID, midnight)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if seen {
		return nil
	}
	return n.Notify(ctx, msg)
}

func (n *Notifier) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return n.repo.ListByUser(ctx, userID, limit)
}

func (n *Notifier) MarkRead(ctx context.Context, userID, id uint) error {
	return n.repo.MarkRead(ctx, userID, id)
}

// email failures are logged only; the stored notification is the record.
func (n *Notifier) email(ctx context.Context, msg models.Notification) {
	if n.send == nil || n.users == nil {
		return
	}
	if n.settings != nil && !n.settings(ctx, msg.UserID) {
		return
	}
	user, err := n.users.GetByID(ctx, msg.UserID)
	if err != nil {
		log.Warnf("[Notify] Cannot load user %d for email: %v", msg.UserID, err)
		return
	}
	if err := n.send(user.Email, "PennyFox: "+subjectFor(msg.Type), msg.Content); err != nil {
		log.Warnf("[Notify] Email %s to user %d failed: %v", msg.Type, msg.UserID, err)
	}
}

func subjectFor(kind string) string {
	switch kind {
	case models.NotificationAutopaySkipped:
		return "automatic payment skipped"
	case models.NotificationSchemaWarning:
		return "action required"
	case models.NotificationExportReady:
		return "your statement is ready"
	default:
		return "notification"
	}
}
