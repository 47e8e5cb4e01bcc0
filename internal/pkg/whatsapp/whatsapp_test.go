package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

const sampleWebhook = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1029",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "messages": [
          {"from": "5511999990000", "id": "wamid.1", "timestamp": "1712750000", "type": "text", "text": {"body": "gasto 25,90 mercado almoço"}},
          {"from": "5511999990000", "id": "wamid.2", "timestamp": "1712750001", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestVerifySignature(t *testing.T) {
	body := []byte(sampleWebhook)
	header := Sign(body, "s3cret")

	assert.True(t, VerifySignature(body, header, "s3cret"))
	assert.False(t, VerifySignature(body, header, "other"))
	assert.False(t, VerifySignature(append(body, ' '), header, "s3cret"))
	assert.False(t, VerifySignature(body, "", "s3cret"))
	assert.False(t, VerifySignature(body, header, ""))
	assert.False(t, VerifySignature(body, "sha256=zz", "s3cret"))
}

func TestParseWebhookKeepsTextMessages(t *testing.T) {
	msgs, err := ParseWebhook([]byte(sampleWebhook))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{ID: "wamid.1", From: "5511999990000", Body: "gasto 25,90 mercado almoço"}, msgs[0])

	_, err = ParseWebhook([]byte(`{"object":"page"}`))
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		body     string
		kind     string
		amount   string
		category string
		err      error
	}{
		{body: "gasto 25,90 mercado", kind: "expense", amount: "25.9", category: "mercado"},
		{body: "Receita 1500 salario", kind: "income", amount: "1500", category: "salario"},
		{body: "paguei R$1.250,50 aluguel", kind: "expense", amount: "1250.5", category: "aluguel"},
		{body: "recebi 1.500 freela", kind: "income", amount: "1500", category: "freela"},
		{body: "gastei 12.5", kind: "expense", amount: "12.5"},
		{body: "oi tudo bem", err: ErrUnknownCommand},
		{body: "gasto", err: ErrBadAmount},
		{body: "gasto -3 lanche", err: ErrBadAmount},
		{body: "", err: ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			cmd, err := ParseCommand(tt.body)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Type)
			assert.Equal(t, tt.amount, cmd.Amount.String())
			assert.Equal(t, tt.category, cmd.Category)
		})
	}
}

type numberBook struct {
	repository.UserRepository
}

func (numberBook) GetByWhatsAppNumber(_ context.Context, number string) (*models.User, error) {
	switch number {
	case "5511999990000":
		return &models.User{ID: 1}, nil
	case "5511888880000":
		return &models.User{ID: 2}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type premiumOnlyForUser1 struct{}

func (premiumOnlyForUser1) CheckAccess(_ context.Context, userID uint, f entitlements.Feature) entitlements.Decision {
	return entitlements.Decision{Feature: f, Allowed: userID == 1}
}

type fakeRecorder struct {
	recorded []ledger.TransactionInput
	failures int
}

func (r *fakeRecorder) Record(_ context.Context, _ uint, in ledger.TransactionInput) (*models.Transaction, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("connection reset")
	}
	r.recorded = append(r.recorded, in)
	return &models.Transaction{ID: uint(len(r.recorded))}, nil
}

func (r *fakeRecorder) FindCategory(_ context.Context, _ uint, name string) (*models.Category, error) {
	if name == "mercado" {
		return &models.Category{ID: 4}, nil
	}
	return nil, ledger.ErrNotFound
}

type memDeduper map[string]bool

func (d memDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	if d[id] {
		return false, nil
	}
	d[id] = true
	return true, nil
}

func (d memDeduper) Forget(_ context.Context, id string) error {
	delete(d, id)
	return nil
}

func TestProcessorRecordsWhitelistedUsers(t *testing.T) {
	rec := &fakeRecorder{}
	p := NewProcessor(numberBook{}, premiumOnlyForUser1{}, rec, memDeduper{})
	ctx := context.Background()

	results := p.Handle(ctx, []Message{
		{ID: "a", From: "5511999990000", Body: "gasto 25,90 mercado almoço"},
		{ID: "a", From: "5511999990000", Body: "gasto 25,90 mercado almoço"},
		{ID: "b", From: "5511888880000", Body: "gasto 10 lanche"},
		{ID: "c", From: "5500000000000", Body: "gasto 10 lanche"},
		{ID: "d", From: "5511999990000", Body: "bom dia"},
	})

	outcomes := make([]string, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, r.Outcome)
	}
	assert.Equal(t, []string{OutcomeRecorded, OutcomeDuplicate, OutcomeNotAllowed, OutcomeUnknownUser, OutcomeUnparsable}, outcomes)

	require.Len(t, rec.recorded, 1)
	in := rec.recorded[0]
	assert.Equal(t, models.TransactionSourceWhatsApp, in.Source)
	assert.True(t, decimal.RequireFromString("25.90").Equal(in.Amount))
	require.NotNil(t, in.CategoryID)
	assert.Equal(t, uint(4), *in.CategoryID)
	assert.Equal(t, "mercado almoço", in.Description)
}

func TestProcessorRetriesRedeliveryAfterFailedRecord(t *testing.T) {
	rec := &fakeRecorder{failures: 1}
	dedupe := memDeduper{}
	p := NewProcessor(numberBook{}, premiumOnlyForUser1{}, rec, dedupe)
	ctx := context.Background()
	msg := Message{ID: "wamid.9", From: "5511999990000", Body: "gasto 12 padaria"}

	first := p.Handle(ctx, []Message{msg})
	require.Len(t, first, 1)
	assert.Equal(t, OutcomeRecordFailed, first[0].Outcome)
	assert.NotContains(t, dedupe, "wamid.9")

	again := p.Handle(ctx, []Message{msg, msg})
	require.Len(t, again, 2)
	assert.Equal(t, OutcomeRecorded, again[0].Outcome)
	assert.Equal(t, OutcomeDuplicate, again[1].Outcome)
	assert.Len(t, rec.recorded, 1)
}
