package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

var ErrDisabled = errors.New("statement export is disabled")

// Store persists a rendered file and returns where it can be fetched.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Source lists the entries and categories of a user.
type Source interface {
	List(ctx context.Context, userID uint, f ledger.Filter) ([]models.Transaction, error)
	ListCategories(ctx context.Context, userID uint) ([]models.Category, error)
}

// Notifier announces a finished export.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Result of one export.
type Result struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

// Exporter renders monthly statements as CSV.
type Exporter struct {
	source   Source
	store    Store
	notifier Notifier
	cfg      *Config
}

// NewExporter builds an Exporter. A nil store disables export.
func NewExporter(source Source, store Store, notifier Notifier, cfg *Config) *Exporter {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Exporter{source: source, store: store, notifier: notifier, cfg: cfg}
}

func (e *Exporter) Enabled() bool {
	return e != nil && e.store != nil
}

// Export renders month (YYYY-MM) for userID, uploads it and notifies the user.
func (e *Exporter) Export(ctx context.Context, userID uint, month string) (*Result, error) {
	if !e.Enabled() {
		return nil, ErrDisabled
	}
	list, err := e.source.List(ctx, userID, ledger.Filter{Month: month})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := e.source.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[uint]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	body, err := RenderCSV(list, names)
	if err != nil {
		return nil, err
	}

	key := e.cfg.ObjectKey(userID, month, uuid.NewString())
	url, err := e.store.Put(ctx, key, "text/csv; charset=utf-8", body)
	if err != nil {
		return nil, err
	}

	if e.notifier != nil {
		err := e.notifier.Notify(ctx, models.Notification{
			UserID:  userID,
			Type:    models.NotificationExportReady,
			Level:   models.NotificationLevelInfo,
			Content: fmt.Sprintf("Your statement for %s is ready: %s", month, url),
		})
		if err != nil {
			log.Warnf("[Export] Notification for user %d failed: %v", userID, err)
		}
	}
	return &Result{Key: key, URL: url, Rows: len(list)}, nil
}

var csvHeader = []string{"date", "type", "amount", "category", "description", "source", "bank_id"}

// RenderCSV writes one row per entry, amounts signed and in two decimals.
func RenderCSV(list []models.Transaction, categories map[uint]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range list {
		category := ""
		if t.CategoryID != nil {
			category = categories[*t.CategoryID]
		}
		bank := ""
		if t.BankID != nil {
			bank = strconv.FormatUint(uint64(*t.BankID), 10)
		}
		row := []string{
			t.Date.Format("2006-01-02"),
			t.Type,
			t.SignedAmount().StringFixed(2),
			category,
			t.Description,
			t.Source,
			bank,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
