package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/logging"
)

// Job is a scheduled task. Its error is logged; it never stops the scheduler.
type Job func(ctx context.Context) error

type entry struct {
	name    string
	weekly  bool
	weekday time.Weekday
	hour    int
	minute  int
	job     Job
}

// next returns the first occurrence of e strictly after now, in now's
// location.
func (e entry) next(now time.Time) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), e.hour, e.minute, 0, 0, now.Location())
	if e.weekly {
		t = t.AddDate(0, 0, (int(e.weekday)-int(t.Weekday())+7)%7)
		if !t.After(now) {
			t = t.AddDate(0, 0, 7)
		}
		return t
	}
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (e entry) describe() string {
	if e.weekly {
		return fmt.Sprintf("every %s at %02d:%02d", e.weekday, e.hour, e.minute)
	}
	return fmt.Sprintf("daily at %02d:%02d", e.hour, e.minute)
}

// Scheduler runs jobs at fixed wall-clock times
type Scheduler struct {
	mu      sync.Mutex
	entries []entry
	logger  *logging.Logger
	now     func() time.Time
}

// New creates an empty scheduler
func New(logger *logging.Logger) *Scheduler {
	return &Scheduler{
		logger: logging.OrNop(logger).Named("scheduler"),
		now:    time.Now,
	}
}

// Now returns the scheduler's current time
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Daily runs job every day at "HH:MM" local time
func (s *Scheduler) Daily(name, at string, job Job) error {
	hour, minute, err := config.ClockTime(at)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.add(entry{name: name, hour: hour, minute: minute, job: job})
	return nil
}

// Weekly runs job every week on day at "HH:MM" local time
func (s *Scheduler) Weekly(name string, day time.Weekday, at string, job Job) error {
	hour, minute, err := config.ClockTime(at)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.add(entry{name: name, weekly: true, weekday: day, hour: hour, minute: minute, job: job})
	return nil
}

func (s *Scheduler) add(e entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	s.logger.Info("job scheduled", logging.String("job", e.name), logging.String("when", e.describe()))
}

// NextRun returns the earliest time after now at which a job is due and
// the names of the jobs due then, in registration order. ok is false when
// nothing is scheduled.
func (s *Scheduler) NextRun(now time.Time) (at time.Time, names []string, ok bool) {
	due := s.due(now)
	if len(due) == 0 {
		return time.Time{}, nil, false
	}
	at = due[0].next(now)
	for _, e := range due {
		names = append(names, e.name)
	}
	return at, names, true
}

// due returns the entries sharing the earliest next occurrence after now
func (s *Scheduler) due(now time.Time) []entry {
	s.mu.Lock()
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()
	if len(entries) == 0 {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].next(now).Before(entries[j].next(now))
	})
	first := entries[0].next(now)
	n := 1
	for n < len(entries) && entries[n].next(now).Equal(first) {
		n++
	}
	return entries[:n]
}

// Run sleeps until the next due job, runs it and repeats until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler started")
	defer s.logger.Info("Scheduler stopped")

	last := time.Time{}
	for {
		now := s.now()
		if now.Before(last) {
			now = last
		}
		due := s.due(now)
		if len(due) == 0 {
			<-ctx.Done()
			return ctx.Err()
		}
		at := due[0].next(now)

		s.logger.Debug("waiting for next job",
			logging.String("job", due[0].name),
			logging.String("at", at.Format(time.RFC3339)))

		timer := time.NewTimer(at.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		for _, e := range due {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.runJob(ctx, e)
		}
		last = at
	}
}

func (s *Scheduler) runJob(ctx context.Context, e entry) {
	start := time.Now()
	s.logger.Info("Running scheduled job", logging.String("job", e.name))

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduled job panicked",
				logging.String("job", e.name),
				logging.Any("panic", p))
		}
	}()

	if err := e.job(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			logging.String("job", e.name),
			logging.Duration("duration", time.Since(start)),
			logging.Error(err))
		return
	}
	s.logger.Info("Scheduled job finished",
		logging.String("job", e.name),
		logging.Duration("duration", time.Since(start)))
}
