package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"

	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
)

// DefaultLoanRefreshSchedule runs the daily loan sweep at 06:00.
const DefaultLoanRefreshSchedule = "0 6 * * *"

// LoanUsers lists the users that still have open loans.
type LoanUsers interface {
	ListUserIDsWithOpenLoans(ctx context.Context) ([]uint, error)
}

// Enqueuer is the part of Queue the scheduler needs.
type Enqueuer interface {
	EnqueueUnique(ctx context.Context, jobType JobType, payload map[string]interface{}, key string, ttl time.Duration) (*Job, error)
}

// Manager owns the queue workers and the cron schedule that feeds them.
type Manager struct {
	queue    *Queue
	enqueuer Enqueuer
	users    LoanUsers
	cron     *cron.Cron
	schedule string
	loc      *time.Location

	mu      sync.Mutex
	running bool
}

// NewManager wires the scheduler. LOAN_REFRESH_SCHEDULE overrides the default cron spec.
func NewManager(queue *Queue, users LoanUsers, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(cronLogger{})
	m := &Manager{
		queue:    queue,
		users:    users,
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(logger))),
		schedule: env.GetEnv("LOAN_REFRESH_SCHEDULE", DefaultLoanRefreshSchedule),
		loc:      loc,
	}
	if queue != nil {
		m.enqueuer = queue
	}
	return m
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start registers the schedule and starts the workers.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	_, err := m.cron.AddFunc(m.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := m.EnqueueLoanRefreshes(ctx); err != nil {
			log.Errorf("[JobManager] Scheduled loan refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid LOAN_REFRESH_SCHEDULE %q: %w", m.schedule, err)
	}

	if m.queue != nil {
		m.queue.Start()
	}
	m.cron.Start()
	m.running = true
	log.Infof("[JobManager] Started, loan refresh schedule %q (%s)", m.schedule, m.loc)
	return nil
}

// Stop halts the schedule, waits for running cron jobs, then stops the workers.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	if m.queue != nil {
		m.queue.Stop()
	}
	m.running = false
	log.Info("[JobManager] Stopped")
}

// EnqueueLoanRefreshes enqueues one loan_refresh job per user with open loans.
// A user already enqueued today is skipped.
func (m *Manager) EnqueueLoanRefreshes(ctx context.Context) (int, error) {
	if m.enqueuer == nil {
		return 0, errors.New("job queue not configured")
	}
	ids, err := m.users.ListUserIDsWithOpenLoans(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users with open loans: %w", err)
	}

	day := time.Now().In(m.loc).Format("2006-01-02")
	enqueued := 0
	var errs []error
	for _, id := range ids {
		payload := LoanRefreshPayload{UserID: id}
		key := fmt.Sprintf("%d:%s", id, day)
		_, err := m.enqueuer.EnqueueUnique(ctx, JobTypeLoanRefresh, payload.ToMap(), key, 24*time.Hour)
		switch {
		case errors.Is(err, ErrDuplicateJob):
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
		default:
			enqueued++
		}
	}
	log.Infof("[JobManager] Enqueued %d loan refresh jobs (%d users)", enqueued, len(ids))
	return enqueued, errors.Join(errs...)
}

type cronLogger struct{}

func (cronLogger) Printf(format string, args ...interface{}) {
	log.Infof("[Cron] "+format, args...)
}
