package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/accounts"
	"github.com/ManuelReschke/PennyFox/internal/pkg/cache"
	"github.com/ManuelReschke/PennyFox/internal/pkg/database"
	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
	"github.com/ManuelReschke/PennyFox/internal/pkg/export"
	"github.com/ManuelReschke/PennyFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
	"github.com/ManuelReschke/PennyFox/internal/pkg/loans"
	"github.com/ManuelReschke/PennyFox/internal/pkg/mail"
	"github.com/ManuelReschke/PennyFox/internal/pkg/notify"
	"github.com/ManuelReschke/PennyFox/internal/pkg/session"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
	"github.com/ManuelReschke/PennyFox/internal/pkg/whatsapp"
)

// Config holds the settings controllers and the router read at request time.
type Config struct {
	RemoteCallTimeout   time.Duration
	WhatsAppAppSecret   string
	WhatsAppVerifyToken string
	MetricsUser         string
	MetricsPassword     string
}

// LoadConfig reads Config from the environment.
func LoadConfig() Config {
	return Config{
		RemoteCallTimeout:   env.GetEnvDuration("REMOTE_CALL_TIMEOUT", 10*time.Second),
		WhatsAppAppSecret:   env.GetEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppVerifyToken: env.GetEnv("WHATSAPP_VERIFY_TOKEN", ""),
		MetricsUser:         env.GetEnv("METRICS_USER", "metrics"),
		MetricsPassword:     env.GetEnv("METRICS_PASSWORD", ""),
	}
}

// Container holds the process-wide dependencies. main builds it once and
// hands it to the router; nothing looks these up globally.
type Container struct {
	Config   Config
	Location *time.Location

	DB       *gorm.DB
	Redis    *redis.Client
	Repos    *repository.Repositories
	Sessions *fibersession.Store

	Subscriptions *subscription.Service
	Accounts      *accounts.Service
	Ledger        *ledger.Service
	Loans         *loans.Manager
	Notifier      *notify.Notifier
	WhatsApp      *whatsapp.Processor
	Exporter      *export.Exporter

	Queue *jobqueue.Queue
	Jobs  *jobqueue.Manager
}

// New connects to MySQL and Redis and wires every service.
func New(ctx context.Context) (*Container, error) {
	db, err := database.SetupDatabase()
	if err != nil {
		return nil, err
	}
	client := cache.NewClient()

	exportCfg, err := export.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}

	return Wire(ctx, Config{}, db, client, repository.NewFactory(db).GetRepositories(), exportCfg)
}

// Wire assembles the services from already opened handles. A zero cfg is
// replaced by LoadConfig.
func Wire(ctx context.Context, cfg Config, db *gorm.DB, client *redis.Client, repos *repository.Repositories, exportCfg *export.Config) (*Container, error) {
	if cfg == (Config{}) {
		cfg = LoadConfig()
	}
	loc := env.Location()

	var stateCache subscription.StateCache
	if client != nil {
		stateCache = subscription.NewRedisStateCache(client, env.GetEnvDuration("SUBSCRIPTION_CACHE_TTL", 5*time.Minute))
	}
	subs := subscription.NewService(repos.Subscription, stateCache)

	var send notify.SendFunc
	if mail.Enabled() {
		send = mail.SendMail
	}
	notifier := notify.New(repos.Notification, repos.User, emailOptIn(repos.UserSettings), send, loc)

	ledgerSvc := ledger.NewService(repos.Transaction, repos.Bank, repos.CreditCard, repos.Category, repos.Goal, loc)
	loanMgr := loans.NewManager(repos.Loan, repos.Transaction, repos.Bank, notifier, loc)

	var dedupe whatsapp.Deduper
	if client != nil {
		dedupe = whatsapp.NewRedisDeduper(client, 24*time.Hour)
	}

	c := &Container{
		Config:        cfg,
		Location:      loc,
		DB:            db,
		Redis:         client,
		Repos:         repos,
		Sessions:      session.NewSessionStore(client),
		Subscriptions: subs,
		Accounts:      accounts.NewService(repos.Bank, repos.CreditCard, repos.Alert, subs),
		Ledger:        ledgerSvc,
		Loans:         loanMgr,
		Notifier:      notifier,
		WhatsApp:      whatsapp.NewProcessor(repos.User, subs, ledgerSvc, dedupe),
	}

	// A disabled export must leave the store interface nil, not a typed nil.
	var store export.Store
	if exportCfg != nil && exportCfg.Enabled {
		s3Store, err := export.NewS3Store(ctx, exportCfg)
		if err != nil {
			log.Errorf("[Bootstrap] Statement export disabled: %v", err)
		} else {
			store = s3Store
		}
	}
	c.Exporter = export.NewExporter(ledgerSvc, store, notifier, exportCfg)

	if client != nil {
		c.Queue = jobqueue.NewQueue(client, env.GetEnvInt("JOBQUEUE_WORKERS", 3))
		c.Queue.Handle(jobqueue.JobTypeLoanRefresh, jobqueue.LoanRefreshHandler(loanMgr))
		c.Queue.Handle(jobqueue.JobTypeStatementExport, jobqueue.StatementExportHandler(c.Exporter))
	}
	c.Jobs = jobqueue.NewManager(c.Queue, repos.Loan, loc)

	return c, nil
}

// emailOptIn reads UserSettings.EmailNotifications, creating defaults on first use.
func emailOptIn(settings repository.UserSettingsRepository) notify.SettingsLookup {
	return func(ctx context.Context, userID uint) bool {
		us, err := settings.GetOrCreate(ctx, userID)
		if err != nil {
			log.Warnf("[Bootstrap] Could not read settings of user %d: %v", userID, err)
			return false
		}
		return us.EmailNotifications
	}
}

// Close releases the connections held by the container.
func (c *Container) Close() {
	if c.Jobs != nil {
		c.Jobs.Stop()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
