// Package scheduler triggers notification cycles on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cycle runs one notification cycle.
type Cycle func(ctx context.Context) error

// Scheduler runs a cycle at startup and then on every cron tick.
type Scheduler struct {
	cycle Cycle
	spec  string
	log   *slog.Logger
}

// New creates a Scheduler that runs cycle every intervalMinutes.
func New(cycle Cycle, intervalMinutes int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cycle: cycle,
		spec:  Spec(intervalMinutes),
		log:   log,
	}
}

// Spec converts a polling interval to a cron expression. Intervals under an
// hour fire on minute boundaries; longer ones run every N minutes from start.
func Spec(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("@every %dm", minutes)
	}
	return fmt.Sprintf("*/%d * * * *", minutes)
}

// Run performs the startup cycle and then blocks, running scheduled cycles,
// until ctx is cancelled. A tick that fires while a cycle is still running is
// skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}

	logger := cronLogger{log: s.log}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { s.runCycle(ctx) }))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(schedule, job)
	c.Start()
	s.log.Info("scheduler started", "schedule", s.spec)

	job.Run()

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.cycle(ctx); err != nil {
		s.log.Error("notification cycle", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
