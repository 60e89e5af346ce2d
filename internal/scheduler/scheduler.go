// Package scheduler runs background jobs on fixed intervals or at set UTC
// times of day and week.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Schedule decides when a job runs next.
type Schedule struct {
	kind     scheduleKind
	weekday  time.Weekday
	hour     int
	minute   int
	interval time.Duration
}

type scheduleKind int

const (
	kindDaily scheduleKind = iota
	kindWeekly
	kindInterval
)

// DailyAt runs a job every day at hour:minute UTC.
func DailyAt(hour, minute int) Schedule {
	return Schedule{kind: kindDaily, hour: hour, minute: minute}
}

// WeeklyAt runs a job every week on weekday at hour:minute UTC.
func WeeklyAt(weekday time.Weekday, hour, minute int) Schedule {
	return Schedule{kind: kindWeekly, weekday: weekday, hour: hour, minute: minute}
}

// Every runs a job every d, starting d after registration.
func Every(d time.Duration) Schedule {
	return Schedule{kind: kindInterval, interval: d}
}

// next returns the first run time strictly after now.
func (s Schedule) next(now time.Time) time.Time {
	now = now.UTC()
	switch s.kind {
	case kindDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case kindWeekly:
		days := (int(s.weekday) - int(now.Weekday()) + 7) % 7
		next := time.Date(now.Year(), now.Month(), now.Day()+days, s.hour, s.minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	case kindInterval:
		return now.Add(s.interval)
	default:
		return now.Add(24 * time.Hour)
	}
}

// Job is one scheduled task.
type Job struct {
	Name        string
	Description string
	Schedule    Schedule
	Handler     func(ctx context.Context) error

	mu      sync.Mutex
	nextRun time.Time
	lastRun time.Time
	lastErr error
	runs    int
	running bool
}

// Status returns a snapshot of the job state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		Name:        j.Name,
		Description: j.Description,
		NextRun:     j.nextRun,
		LastRun:     j.lastRun,
		LastErr:     j.lastErr,
		Runs:        j.runs,
	}
}

// JobStatus is a point-in-time view of a job.
type JobStatus struct {
	Name        string
	Description string
	NextRun     time.Time
	LastRun     time.Time
	LastErr     error
	Runs        int
}

// Scheduler owns the background jobs of the application.
type Scheduler struct {
	jobs       []*Job
	mu         sync.RWMutex
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	now        func() time.Time
	tick       time.Duration
	jobTimeout time.Duration
}

// New creates a scheduler that checks for due jobs every 30 seconds.
func New() *Scheduler {
	return &Scheduler{
		stopChan:   make(chan struct{}),
		now:        time.Now,
		tick:       30 * time.Second,
		jobTimeout: 5 * time.Minute,
	}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.nextRun = job.Schedule.next(s.now())
	s.jobs = append(s.jobs, job)

	slog.Info("scheduler job registered", "job", job.Name, "next_run", job.nextRun.Format(time.RFC3339))
}

// Start runs the scheduler loop in a background goroutine.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	slog.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop stops the loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

// Jobs returns the status of every registered job.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	statuses := make([]JobStatus, len(jobs))
	for i, j := range jobs {
		statuses[i] = j.Status()
	}
	return statuses
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.runDue()

	for {
		select {
		case <-ticker.C:
			s.runDue()
		case <-s.stopChan:
			return
		}
	}
}

// runDue starts every job whose time has come and that is not already running.
func (s *Scheduler) runDue() {
	now := s.now()

	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobs {
		job.mu.Lock()
		due := !job.running && !now.Before(job.nextRun)
		if due {
			job.running = true
		}
		job.mu.Unlock()

		if due {
			s.wg.Add(1)
			go s.run(job)
		}
	}
}

func (s *Scheduler) run(job *Job) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := s.now()
	err := job.Handler(ctx)
	elapsed := time.Since(start)

	job.mu.Lock()
	job.lastRun = start
	job.lastErr = err
	job.runs++
	job.running = false
	job.nextRun = job.Schedule.next(s.now())
	nextRun := job.nextRun
	job.mu.Unlock()

	if err != nil {
		slog.Error("scheduler job failed", "job", job.Name, "elapsed", elapsed, "error", err)
		return
	}
	slog.Info("scheduler job done", "job", job.Name, "elapsed", elapsed, "next_run", nextRun.Format(time.RFC3339))
}
