// Package scheduler runs periodic background jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewJobFunc creates a named Job from fn
func NewJobFunc(name string, fn func(ctx context.Context) error) *JobFunc {
	return &JobFunc{name: name, fn: fn}
}

// Name returns the job name
func (j *JobFunc) Name() string { return j.name }

// Run calls the wrapped function
func (j *JobFunc) Run(ctx context.Context) error { return j.fn(ctx) }

// JobState is a snapshot of a registered job
type JobState struct {
	Name        string
	Spec        string
	Status      JobStatus
	Error       string
	LastRunAt   *time.Time
	NextRunAt   *time.Time
	RunCount    int
	FailedCount int
}

// Config holds scheduler settings
type Config struct {
	// Location is the zone cron expressions are evaluated in
	Location *time.Location
	// JobTimeout bounds a single run. Zero means no timeout.
	JobTimeout time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Location:   time.Local,
		JobTimeout: 5 * time.Minute,
	}
}

type entry struct {
	id    cron.EntryID
	job   Job
	state JobState
}

// Scheduler wraps a cron runner. Jobs are registered before Start.
// Overlapping runs of the same job are skipped.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new Scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
		logger:  logger.Named("scheduler"),
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register schedules job on a standard five-field cron spec
func (s *Scheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}
	if _, exists := s.entries[job.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec, err)
	}

	e := &entry{
		job:   job,
		state: JobState{Name: job.Name(), Spec: spec, Status: JobStatusPending},
	}
	id, err := s.cron.AddFunc(spec, func() { s.execute(e) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec, err)
	}
	e.id = id
	s.entries[job.Name()] = e
	s.order = append(s.order, job.Name())

	s.logger.Info("Job registered", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// Start starts the cron runner in its own goroutine
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)), zap.String("location", s.config.Location.String()))
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
		return ctx.Err()
	}
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	return s.execute(e)
}

// Jobs returns a snapshot of every registered job in registration order
func (s *Scheduler) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		e := s.entries[name]
		state := e.state
		if s.running {
			if next := s.cron.Entry(e.id).Next; !next.IsZero() {
				state.NextRunAt = &next
			}
		}
		states = append(states, state)
	}
	return states
}

func (s *Scheduler) execute(e *entry) error {
	s.mu.Lock()
	if e.state.Status == JobStatusRunning {
		s.mu.Unlock()
		s.logger.Debug("Skipping overlapping run", zap.String("job", e.state.Name))
		return nil
	}
	started := time.Now()
	e.state.Status = JobStatusRunning
	e.state.LastRunAt = &started
	s.mu.Unlock()

	ctx := s.ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	err := e.job.Run(ctx)

	s.mu.Lock()
	e.state.RunCount++
	if err != nil {
		e.state.Status = JobStatusFailed
		e.state.Error = err.Error()
		e.state.FailedCount++
	} else {
		e.state.Status = JobStatusSuccess
		e.state.Error = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", e.state.Name),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return err
	}
	s.logger.Debug("Job completed",
		zap.String("job", e.state.Name),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// cronLogger routes cron's internal messages to zap
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
