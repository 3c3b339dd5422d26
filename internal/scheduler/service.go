package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/sirupsen/logrus"
)

// Runner executes one poll tick
type Runner interface {
	RunMonitoring(ctx context.Context) (monitoring.TickStats, error)
}

// Service handles scheduling of poll ticks
type Service struct {
	interval time.Duration
	runner   Runner
	cron     *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new scheduler service. Ticks never overlap: a tick that
// is due while the previous one is still running is skipped.
func NewService(interval time.Duration, runner Runner) *Service {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	return &Service{
		interval: interval,
		runner:   runner,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start begins the scheduled monitoring
func (s *Service) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		s.cancel()
		s.cancel = nil
		return fmt.Errorf("failed to schedule poll loop: %w", err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started, polling every %s", s.interval)
	return nil
}

func (s *Service) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	logrus.Debug("Starting scheduled monitoring run")
	if _, err := s.runner.RunMonitoring(ctx); err != nil {
		logrus.Errorf("Scheduled monitoring run failed: %v", err)
	}
}

// Stop cancels any in-flight tick and waits for it to return or for ctx to expire
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	if cancel != nil {
		cancel()
	}

	select {
	case <-done.Done():
		logrus.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
