package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService triggers Service.RunOnce on a cron schedule in UTC.
// A run still in progress when the next tick fires causes that tick to be skipped.
type SchedulerService struct {
	service *Service
	spec    string
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool

	// tracks the cycle started by Start outside of cron
	initial sync.WaitGroup
}

func NewSchedulerService(service *Service, spec string, logger *slog.Logger) (*SchedulerService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &SchedulerService{service: service, spec: spec, logger: logger}, nil
}

// Start runs one cycle immediately and then on every tick until ctx is done.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	// the initial run and the ticks share one wrapped job, so a tick that
	// fires during the initial run is skipped as well
	job := cron.NewChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	).Then(cron.FuncJob(func() { s.service.RunOnce(ctx) }))

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.cron = c
	s.started = true

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		job.Run()
	}()
	c.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running cycle to return.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.started = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.initial.Wait()
	s.logger.Info("scheduler stopped")
}
