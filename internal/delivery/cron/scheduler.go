package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	cron "github.com/robfig/cron/v3"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/logger"
	"tiktok_ingest/internal/usecase"
)

// Scheduler manages cron jobs for the application
type Scheduler struct {
	cron     *cron.Cron
	config   *config.Config
	trending *usecase.TrendingCache
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a new cron scheduler
func NewScheduler(cfg *config.Config, trending *usecase.TrendingCache) *Scheduler {
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Create cron with seconds support
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:     c,
		config:   cfg,
		trending: trending,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the cron scheduler
func (s *Scheduler) Start() error {
	schedule := normalizeSchedule(s.config.TrendingSchedule)
	jobID, err := s.cron.AddFunc(schedule, s.refreshTrendingJob)
	if err != nil {
		return fmt.Errorf("failed to schedule trending refresh job: %w", err)
	}
	logger.Info().Printf("Scheduled trending refresh job with ID: %d, schedule: %s", jobID, schedule)

	s.cron.Start()
	logger.Info().Println("Cron scheduler started")

	// Warm the cache immediately so the first API call doesn't block on a
	// full scrape
	go s.refreshTrendingJob()

	return nil
}

// Stop stops the cron scheduler gracefully
func (s *Scheduler) Stop() {
	logger.Info().Println("Stopping cron scheduler...")
	s.cancel()
	s.cron.Stop()
	logger.Info().Println("Cron scheduler stopped")
}

// refreshTrendingJob refreshes the trending snapshot
func (s *Scheduler) refreshTrendingJob() {
	logger.Info().Println("Starting trending refresh job...")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := s.trending.Refresh(ctx); err != nil {
		logger.Error().Printf("Trending refresh job failed: %v", err)
		return
	}

	duration := time.Since(startTime)
	logger.Info().Printf("Trending refresh job completed in %v", duration)
}

// normalizeSchedule ensures cron expressions are compatible with cron.WithSeconds
func normalizeSchedule(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}
