package whatsapp

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

// Outcomes of one message.
const (
	OutcomeRecorded     = "recorded"
	OutcomeDuplicate    = "duplicate"
	OutcomeUnknownUser  = "unknown_user"
	OutcomeNotAllowed   = "feature_not_available"
	OutcomeUnparsable   = "unparsable"
	OutcomeRecordFailed = "record_failed"
)

// Gate decides feature access for a user.
type Gate interface {
	CheckAccess(ctx context.Context, userID uint, feature entitlements.Feature) entitlements.Decision
}

// Recorder writes ledger entries.
type Recorder interface {
	Record(ctx context.Context, userID uint, in ledger.TransactionInput) (*models.Transaction, error)
	FindCategory(ctx context.Context, userID uint, name string) (*models.Category, error)
}

// Deduper reports whether a message id is seen for the first time. Forget
// releases a claimed id so a redelivery is processed again.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// Result describes what happened to one message.
type Result struct {
	MessageID     string `json:"message_id"`
	Outcome       string `json:"outcome"`
	TransactionID uint   `json:"transaction_id,omitempty"`
}

// Processor turns inbound messages into ledger entries.
type Processor struct {
	users  repository.UserRepository
	gate   Gate
	ledger Recorder
	dedupe Deduper
}

// NewProcessor builds a Processor. dedupe may be nil.
func NewProcessor(users repository.UserRepository, gate Gate, recorder Recorder, dedupe Deduper) *Processor {
	return &Processor{users: users, gate: gate, ledger: recorder, dedupe: dedupe}
}

// Handle processes every message. It never fails as a whole so the webhook
// can acknowledge delivery.
func (p *Processor) Handle(ctx context.Context, messages []Message) []Result {
	results := make([]Result, 0, len(messages))
	for _, m := range messages {
		results = append(results, p.handle(ctx, m))
	}
	return results
}

func (p *Processor) handle(ctx context.Context, m Message) Result {
	res := Result{MessageID: m.ID}

	if p.dedupe != nil && m.ID != "" {
		first, err := p.dedupe.FirstSeen(ctx, m.ID)
		if err != nil {
			log.Warnf("[WhatsApp] Dedupe check for %s failed: %v", m.ID, err)
		} else if !first {
			res.Outcome = OutcomeDuplicate
			return res
		}
	}

	user, err := p.users.GetByWhatsAppNumber(ctx, m.From)
	if err != nil {
		res.Outcome = OutcomeUnknownUser
		return res
	}
	if d := p.gate.CheckAccess(ctx, user.ID, entitlements.FeatureWhatsApp); !d.Allowed {
		res.Outcome = OutcomeNotAllowed
		return res
	}

	cmd, err := ParseCommand(m.Body)
	if err != nil {
		res.Outcome = OutcomeUnparsable
		return res
	}

	in := ledger.TransactionInput{
		Type:        cmd.Type,
		Amount:      cmd.Amount,
		Description: cmd.Description,
		Source:      models.TransactionSourceWhatsApp,
	}
	if cmd.Category != "" {
		if c, err := p.ledger.FindCategory(ctx, user.ID, cmd.Category); err == nil {
			in.CategoryID = &c.ID
		} else if !errors.Is(err, ledger.ErrNotFound) {
			log.Warnf("[WhatsApp] Category lookup for user %d failed: %v", user.ID, err)
		}
	}

	entry, err := p.ledger.Record(ctx, user.ID, in)
	if err != nil {
		log.Errorf("[WhatsApp] Recording message %s for user %d failed: %v", m.ID, user.ID, err)
		p.forget(ctx, m.ID)
		res.Outcome = OutcomeRecordFailed
		return res
	}
	res.Outcome = OutcomeRecorded
	res.TransactionID = entry.ID
	return res
}

func (p *Processor) forget(ctx context.Context, messageID string) {
	if p.dedupe == nil || messageID == "" {
		return
	}
	if err := p.dedupe.Forget(ctx, messageID); err != nil {
		log.Warnf("[WhatsApp] Releasing message %s failed, a redelivery will be dropped: %v", messageID, err)
	}
}

// RedisDeduper remembers message ids for ttl. The Cloud API redelivers until acknowledged.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

const dedupeKeyPrefix = "whatsapp:msg:"

func (d *RedisDeduper) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKeyPrefix+messageID, 1, d.ttl).Result()
}

func (d *RedisDeduper) Forget(ctx context.Context, messageID string) error {
	return d.client.Del(ctx, dedupeKeyPrefix+messageID).Err()
}
