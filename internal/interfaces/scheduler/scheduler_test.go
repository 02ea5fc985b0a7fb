package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockJob struct {
	userID      string
	ExecuteFunc func(ctx context.Context) error
}

func (m *mockJob) Execute(ctx context.Context) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx)
	}
	return nil
}

func (m *mockJob) UserID() string      { return m.userID }
func (m *mockJob) Description() string { return "mock job for user " + m.userID }

type MockSweeper struct {
	mu        sync.Mutex
	swept     []int64
	OwnersErr error
	Owners    []int64
	SweepFunc func(ctx context.Context, userID int64) (int, error)
}

func (m *MockSweeper) CheckAndNotifyNearOverdueGoalsForUser(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	m.swept = append(m.swept, userID)
	m.mu.Unlock()
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx, userID)
	}
	return 1, nil
}

func (m *MockSweeper) ActiveGoalOwners(ctx context.Context) ([]int64, error) {
	return m.Owners, m.OwnersErr
}

func (m *MockSweeper) sweptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.swept)
}

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3, 0, 10)
	pool.Start()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		err := pool.Submit(&mockJob{userID: "1", ExecuteFunc: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	pool.ShutdownWithTimeout(5 * time.Second)

	if got := ran.Load(); got != 10 {
		t.Errorf("ran %d jobs, want 10", got)
	}
}

func TestWorkerPool_FailingJobDoesNotStopWorker(t *testing.T) {
	pool := NewWorkerPool(1, 0, 5)
	pool.Start()

	var ran atomic.Int32
	pool.Submit(&mockJob{userID: "1", ExecuteFunc: func(ctx context.Context) error {
		return errors.New("boom")
	}})
	pool.Submit(&mockJob{userID: "2", ExecuteFunc: func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}})

	pool.ShutdownWithTimeout(5 * time.Second)

	if ran.Load() != 1 {
		t.Error("job after a failing job was not run")
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	// Workers are not started, so the queue only fills.
	pool := NewWorkerPool(1, 0, 1)

	if err := pool.Submit(&mockJob{userID: "1"}); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if err := pool.Submit(&mockJob{userID: "2"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second Submit() error = %v, want ErrQueueFull", err)
	}

	jobs := []Job{&mockJob{userID: "3"}, &mockJob{userID: "4"}}
	if got := pool.SubmitBatch(jobs); got != 0 {
		t.Errorf("SubmitBatch() = %d, want 0", got)
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(1, 0, 1)
	pool.Start()
	pool.ShutdownWithTimeout(time.Second)
	pool.ShutdownWithTimeout(time.Second)

	if err := pool.Submit(&mockJob{userID: "1"}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() error = %v, want ErrPoolClosed", err)
	}
}

func TestWorkerPool_TimeoutCancelsRunningJob(t *testing.T) {
	pool := NewWorkerPool(1, 0, 1)
	pool.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	pool.Submit(&mockJob{userID: "1", ExecuteFunc: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}})

	<-started
	pool.ShutdownWithTimeout(50 * time.Millisecond)

	select {
	case <-cancelled:
	default:
		t.Error("running job context was not cancelled")
	}
}

func TestDeadlineJob(t *testing.T) {
	sweeper := &MockSweeper{}
	job := NewDeadlineJob(42, sweeper)

	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(sweeper.swept) != 1 || sweeper.swept[0] != 42 {
		t.Errorf("swept = %v, want [42]", sweeper.swept)
	}
	if job.UserID() != "42" {
		t.Errorf("UserID() = %q, want 42", job.UserID())
	}

	failing := &MockSweeper{SweepFunc: func(ctx context.Context, userID int64) (int, error) {
		return 0, errors.New("db down")
	}}
	if err := NewDeadlineJob(1, failing).Execute(context.Background()); err == nil {
		t.Error("expected error from failing sweep")
	}
}

func TestDeadlineJobProvider(t *testing.T) {
	sweeper := &MockSweeper{Owners: []int64{1, 2, 3}}
	jobs, err := DeadlineJobProvider(sweeper, sweeper)(context.Background())
	if err != nil {
		t.Fatalf("provider error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[1].UserID() != "2" {
		t.Errorf("jobs[1].UserID() = %q, want 2", jobs[1].UserID())
	}

	sweeper.OwnersErr = errors.New("db down")
	if _, err := DeadlineJobProvider(sweeper, sweeper)(context.Background()); err == nil {
		t.Error("expected provider error")
	}
}

func TestNewScheduler_Validation(t *testing.T) {
	provider := func(context.Context) ([]Job, error) { return nil, nil }

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"cron expression", Config{Schedule: "0 9 * * *", JobProvider: provider}, false},
		{"descriptor", Config{Schedule: "@daily", JobProvider: provider}, false},
		{"invalid expression", Config{Schedule: "every morning", JobProvider: provider}, true},
		{"missing provider", Config{Schedule: "@daily"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduler(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScheduler() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheduler_RunNow(t *testing.T) {
	sweeper := &MockSweeper{Owners: []int64{7, 8}}
	s, err := NewScheduler(Config{
		Schedule:    "0 9 * * *",
		WorkerCount: 2,
		QueueSize:   10,
		JobProvider: DeadlineJobProvider(sweeper, sweeper),
	})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Start()

	if next := s.NextRun(); next.IsZero() || next.Hour() != 9 {
		t.Errorf("NextRun() = %v, want a 09:00 activation", next)
	}

	submitted, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if submitted != 2 {
		t.Errorf("RunNow() = %d, want 2", submitted)
	}

	s.Shutdown(5 * time.Second)

	if got := sweeper.sweptCount(); got != 2 {
		t.Errorf("swept %d users, want 2", got)
	}
}

func TestScheduler_RunOnStartup(t *testing.T) {
	sweeper := &MockSweeper{Owners: []int64{1}}
	s, err := NewScheduler(Config{
		Schedule:     "@monthly",
		RunOnStartup: true,
		JobProvider:  DeadlineJobProvider(sweeper, sweeper),
	})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Start()
	s.Shutdown(5 * time.Second)

	if got := sweeper.sweptCount(); got != 1 {
		t.Errorf("swept %d users on startup, want 1", got)
	}
}
