// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobPurgeEvents = "purge_events"
)

// DefaultPurgeSchedule runs event retention daily at 03:00.
const DefaultPurgeSchedule = "0 3 * * *"

const jobTimeout = 5 * time.Minute

// EventPurger deletes audit events older than a cutoff.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config configures a Scheduler.
type Config struct {
	Events EventPurger
	// Retention is how long events are kept; zero disables the purge job.
	Retention time.Duration
	// PurgeSchedule overrides DefaultPurgeSchedule.
	PurgeSchedule string
	Logger        *slog.Logger
}

// job holds metadata about a registered cron job.
type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
}

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a new scheduler instance.
func New(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PurgeSchedule == "" {
		cfg.PurgeSchedule = DefaultPurgeSchedule
	}
	return &Scheduler{
		cfg:    cfg,
		cron:   cron.New(),
		logger: cfg.Logger,
		jobs:   make(map[string]*job),
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.Events != nil && s.cfg.Retention > 0 {
		desc := fmt.Sprintf("Delete events older than %s", s.cfg.Retention)
		if err := s.addJob(JobPurgeEvents, desc, s.cfg.PurgeSchedule, s.purgeEvents); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// addJob schedules fn under name.
func (s *Scheduler) addJob(name, description, schedule string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}

	j := &job{name: name, description: description, schedule: schedule, run: fn}
	entryID, err := s.cron.AddFunc(schedule, func() { s.runJob(j) })
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, schedule, err)
	}
	j.entryID = entryID
	s.jobs[name] = j

	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) runJob(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := j.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
	}
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}

	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// TriggerNow runs a registered job immediately in the caller's goroutine.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "job", name)
	return j.run(ctx)
}

// purgeEvents deletes events past the retention window.
func (s *Scheduler) purgeEvents(ctx context.Context) error {
	deleted, err := s.cfg.Events.DeleteOldEvents(ctx, s.cfg.Retention)
	if err != nil {
		return fmt.Errorf("deleting old events: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("purged old events", "deleted", deleted, "retention", s.cfg.Retention.String())
	}
	return nil
}
