package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the scan on a cron schedule in watch mode.
type Scheduler struct {
	Cron *cron.Cron
}

// NewScheduler creates a new Scheduler with seconds-precision specs.
func NewScheduler() *Scheduler {
	return &Scheduler{Cron: cron.New(cron.WithSeconds())}
}

// Register registers a task under the given cron spec.
func (s *Scheduler) Register(spec string, task func()) error {
	if _, err := s.Cron.AddFunc(spec, task); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}
