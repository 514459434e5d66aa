// Package scheduler runs recurring simulation smoke-runs over registered
// graphs. Teams pin a cron expression to a workflow so the console re-checks
// that the drawn flow still walks start to end after edits; results surface
// through the usual run events, nothing is persisted.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RunStarter is the interface the scheduler drives simulations through.
// Satisfied by the designer (avoids import cycle).
type RunStarter interface {
	Simulate(ctx context.Context, graphID string) (string, error)
}

// Job is one scheduled smoke-run registration.
type Job struct {
	ID             string
	GraphID        string
	CronExpression string
	Enabled        bool
	LastRunAt      *time.Time
	NextRunAt      *time.Time
	LastRunStatus  string
}

// Scheduler polls registered jobs and starts due simulations.
type Scheduler struct {
	starter  RunStarter
	parser   cron.Parser
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	jobsMu sync.Mutex
	jobs   map[string]*Job

	inflightMu sync.Mutex
	inflight   map[string]struct{} // job IDs currently executing (dedup)
}

// NewScheduler creates a Scheduler polling at interval (0 means 60s).
func NewScheduler(starter RunStarter, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		starter:  starter,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:   logger,
		interval: interval,
		jobs:     make(map[string]*Job),
		inflight: make(map[string]struct{}),
	}
}

// AddJob registers a smoke-run schedule for a graph. The cron expression is
// validated up front so a typo fails at registration, not at the first tick.
func (s *Scheduler) AddJob(id, graphID, cronExpr string) (*Job, error) {
	next, err := s.CalculateNextRun(cronExpr, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	job := &Job{
		ID:             id,
		GraphID:        graphID,
		CronExpression: cronExpr,
		Enabled:        true,
		NextRunAt:      &next,
	}
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return nil, fmt.Errorf("scheduled job %q already exists", id)
	}
	s.jobs[id] = job
	return job, nil
}

// RemoveJob drops a registration.
func (s *Scheduler) RemoveJob(id string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	delete(s.jobs, id)
}

// SetEnabled toggles a job without losing its schedule.
func (s *Scheduler) SetEnabled(id string, enabled bool) bool {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Enabled = enabled
	return true
}

// Jobs returns a snapshot of all registrations.
func (s *Scheduler) Jobs() []Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

// Start launches the background polling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick checks all enabled jobs and starts those that are due.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	for _, job := range s.dueJobs(now) {
		if !s.tryAcquire(job.ID) {
			continue // already running (dedup)
		}
		if err := s.runJob(ctx, job, now); err != nil {
			s.logger.Error("failed to run scheduled smoke-run",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
		s.release(job.ID)
	}
}

// dueJobs returns enabled jobs whose next run time has arrived.
func (s *Scheduler) dueJobs(now time.Time) []*Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	var due []*Job
	for _, job := range s.jobs {
		if !job.Enabled {
			continue
		}
		if job.NextRunAt == nil || !job.NextRunAt.After(now) {
			due = append(due, job)
		}
	}
	return due
}

// runJob starts a simulation for the job's graph and updates its timestamps.
func (s *Scheduler) runJob(ctx context.Context, job *Job, now time.Time) error {
	s.logger.Info("starting scheduled smoke-run",
		slog.String("job_id", job.ID),
		slog.String("graph_id", job.GraphID),
	)

	runID, err := s.starter.Simulate(ctx, job.GraphID)
	status := "success"
	if err != nil {
		status = "error"
		s.logger.Error("scheduled smoke-run failed to start",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("scheduled smoke-run started",
			slog.String("job_id", job.ID),
			slog.String("run_id", runID),
		)
	}

	return s.updateJobStatus(job, now, status)
}

func (s *Scheduler) updateJobStatus(job *Job, now time.Time, status string) error {
	nextRun, err := s.CalculateNextRun(job.CronExpression, now)
	if err != nil {
		return fmt.Errorf("calculate next run for job %q: %w", job.ID, err)
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job.LastRunAt = &now
	job.NextRunAt = &nextRun
	job.LastRunStatus = status
	return nil
}

// tryAcquire returns true and marks the job as in-flight if it is not already running.
func (s *Scheduler) tryAcquire(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[jobID]; ok {
		return false
	}
	s.inflight[jobID] = struct{}{}
	return true
}

func (s *Scheduler) release(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
}

// CalculateNextRun computes the next run time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}
