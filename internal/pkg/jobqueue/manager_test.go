package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PennyFox/internal/pkg/export"
	"github.com/ManuelReschke/PennyFox/internal/pkg/loans"
)

type staticUsers []uint

func (s staticUsers) ListUserIDsWithOpenLoans(context.Context) ([]uint, error) {
	return s, nil
}

type fakeEnqueuer struct {
	seen    map[string]bool
	jobs    []map[string]interface{}
	failFor uint
}

func (f *fakeEnqueuer) EnqueueUnique(_ context.Context, _ JobType, payload map[string]interface{}, key string, _ time.Duration) (*Job, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if payload["user_id"] == f.failFor {
		return nil, errors.New("redis down")
	}
	if f.seen[key] {
		return nil, ErrDuplicateJob
	}
	f.seen[key] = true
	f.jobs = append(f.jobs, payload)
	return &Job{ID: key}, nil
}

func TestEnqueueLoanRefreshesOncePerUserPerDay(t *testing.T) {
	m := NewManager(nil, staticUsers{1, 2, 3}, time.UTC)
	q := &fakeEnqueuer{}
	m.enqueuer = q

	n, err := m.EnqueueLoanRefreshes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.EnqueueLoanRefreshes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "second sweep on the same day enqueues nothing")
	assert.Len(t, q.jobs, 3)
}

func TestEnqueueLoanRefreshesCollectsErrors(t *testing.T) {
	m := NewManager(nil, staticUsers{1, 2}, time.UTC)
	m.enqueuer = &fakeEnqueuer{failFor: 2}

	n, err := m.EnqueueLoanRefreshes(context.Background())
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "user 2")
}

func TestEnqueueWithoutQueue(t *testing.T) {
	m := NewManager(nil, staticUsers{1}, nil)
	_, err := m.EnqueueLoanRefreshes(context.Background())
	assert.Error(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Setenv("LOAN_REFRESH_SCHEDULE", "not a cron spec")
	m := NewManager(nil, staticUsers{}, time.UTC)
	assert.Error(t, m.Start())
}

func TestStartAndStopWithoutQueue(t *testing.T) {
	m := NewManager(nil, staticUsers{}, time.UTC)
	require.NoError(t, m.Start())
	require.NoError(t, m.Start(), "second start is a no-op")
	m.Stop()
	m.Stop()
}

type fakeRefresher struct {
	repaired bool
	report   *loans.RefreshReport
	err      error
}

func (f *fakeRefresher) RepairLegacy(context.Context, uint) (int, error) {
	f.repaired = true
	return 1, nil
}

func (f *fakeRefresher) Refresh(context.Context, uint) (*loans.RefreshReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.report == nil {
		return &loans.RefreshReport{}, nil
	}
	return f.report, nil
}

func TestLoanRefreshHandler(t *testing.T) {
	t.Run("repair then refresh", func(t *testing.T) {
		r := &fakeRefresher{}
		job := &Job{Type: JobTypeLoanRefresh, Payload: LoanRefreshPayload{UserID: 5, Repair: true}.ToMap()}
		require.NoError(t, LoanRefreshHandler(r)(context.Background(), job))
		assert.True(t, r.repaired)
	})

	t.Run("refresh only", func(t *testing.T) {
		r := &fakeRefresher{}
		job := &Job{Payload: LoanRefreshPayload{UserID: 5}.ToMap()}
		require.NoError(t, LoanRefreshHandler(r)(context.Background(), job))
		assert.False(t, r.repaired)
	})

	t.Run("loan failures fail the job", func(t *testing.T) {
		r := &fakeRefresher{report: &loans.RefreshReport{Failures: []loans.Failure{{LoanID: 9, Stage: loans.StageAutopay, Error: "db"}}}}
		job := &Job{Payload: LoanRefreshPayload{UserID: 5}.ToMap()}
		err := LoanRefreshHandler(r)(context.Background(), job)
		assert.ErrorContains(t, err, "loan 9")
	})

	t.Run("missing user", func(t *testing.T) {
		err := LoanRefreshHandler(&fakeRefresher{})(context.Background(), &Job{Payload: map[string]interface{}{}})
		assert.Error(t, err)
	})
}

type fakeExporter struct {
	month string
	err   error
}

func (f *fakeExporter) Export(_ context.Context, _ uint, month string) (*export.Result, error) {
	f.month = month
	if f.err != nil {
		return nil, f.err
	}
	return &export.Result{Key: "statements/1/" + month + "/x.csv", Rows: 2}, nil
}

func TestStatementExportHandler(t *testing.T) {
	e := &fakeExporter{}
	job := &Job{Payload: StatementExportPayload{UserID: 1, Month: "2024-06"}.ToMap()}
	require.NoError(t, StatementExportHandler(e)(context.Background(), job))
	assert.Equal(t, "2024-06", e.month)

	e.err = export.ErrDisabled
	assert.ErrorIs(t, StatementExportHandler(e)(context.Background(), job), export.ErrDisabled)

	bad := &Job{Payload: StatementExportPayload{UserID: 1}.ToMap()}
	assert.Error(t, StatementExportHandler(e)(context.Background(), bad))
}
