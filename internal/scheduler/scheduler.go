// Package scheduler triggers automation passes on a cron schedule inside
// "bloggen serve".
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Guidantas28/blog-generator/internal/automation"
)

// Runner runs one automation pass.
type Runner interface {
	RunDue(ctx context.Context) (*automation.RunResult, error)
}

// Scheduler runs a Runner on a standard five-field cron expression or a
// descriptor such as "@every 6h". A tick that fires while the previous pass
// is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates the cron expression and prepares a scheduler. It does not
// start it.
func New(expr string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(
				cron.Recover(cl),
				cron.SkipIfStillRunning(cl),
			),
		),
		ctx: context.Background(),
	}
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("scheduling %q: %w", expr, err)
	}
	return s, nil
}

// Start begins firing. Passes run under ctx; cancelling it aborts an
// in-flight pass.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "next_run", s.cron.Entries()[0].Next)
}

// Stop stops firing and returns a context that is done once any running
// pass has returned.
func (s *Scheduler) Stop() context.Context {
	done := s.cron.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
	return done
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	res, err := s.runner.RunDue(ctx)
	switch {
	case errors.Is(err, automation.ErrRunInProgress):
		s.logger.Info("skipping scheduled pass, another run is in progress")
	case err != nil:
		s.logger.Error("scheduled automation pass failed", "error", err)
	default:
		s.logger.Info("scheduled automation pass finished",
			"message", res.Message,
			"processed", res.Processed,
			"succeeded", res.Succeeded,
			"failed", res.Failed)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
