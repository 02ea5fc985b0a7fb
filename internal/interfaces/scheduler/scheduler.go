package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobProvider lists the jobs for one scheduled run.
type JobProvider func(context.Context) ([]Job, error)

// Config holds scheduler settings. Schedule is a standard five-field cron
// expression or a descriptor such as "@daily".
type Config struct {
	Schedule     string
	Location     *time.Location
	WorkerCount  int
	JobDelay     time.Duration
	QueueSize    int
	RunOnStartup bool
	JobProvider  JobProvider
}

// Scheduler fetches jobs on a cron schedule and feeds them to a worker pool.
type Scheduler struct {
	cron        *cron.Cron
	entryID     cron.EntryID
	workerPool  *WorkerPool
	jobProvider JobProvider
	runOnStart  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(config Config) (*Scheduler, error) {
	if config.JobProvider == nil {
		return nil, errors.New("a job provider is required")
	}
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		workerPool:  NewWorkerPool(config.WorkerCount, config.JobDelay, config.QueueSize),
		jobProvider: config.JobProvider,
		runOnStart:  config.RunOnStartup,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	id, err := s.cron.AddFunc(config.Schedule, func() {
		if _, err := s.RunNow(s.ctx); err != nil {
			log.Printf("Scheduler: run failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err)
	}
	s.entryID = id

	log.Printf("Scheduler initialized with schedule %q (%d workers, %v delay)", config.Schedule, s.workerPool.workerCount, config.JobDelay)
	return s, nil
}

func (s *Scheduler) Start() {
	s.workerPool.Start()
	s.cron.Start()

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.RunNow(s.ctx); err != nil {
				log.Printf("Scheduler: startup run failed: %v", err)
			}
		}()
	}

	log.Printf("Scheduler started, next run at %s", s.NextRun().Format(time.RFC3339))
}

// RunNow fetches jobs and queues them immediately, returning how many were
// accepted by the pool.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}
	return s.workerPool.SubmitBatch(jobs), nil
}

// NextRun returns the next scheduled activation, or the zero time before
// Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Shutdown stops scheduling, waits for in-flight runs and drains the pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	log.Println("Scheduler: Initiating graceful shutdown...")

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(timeout):
		log.Println("Scheduler: Timeout waiting for running schedule")
	}

	s.cancel()
	s.wg.Wait()

	s.workerPool.ShutdownWithTimeout(timeout)
	log.Println("Scheduler: Shutdown complete")
}
