package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// Scheduler drives the periodic work: the mailbox poll loop and the
// daily suggestion run. Either job may be absent when its feature is
// disabled in configuration.
type Scheduler struct {
	mailIngest   *core.MailIngestService
	suggestions  *core.SuggestionService
	logger       *zap.Logger
	pollInterval time.Duration
	runAt        string
	runOnStart   bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a new scheduler. mailIngest may be nil when mailbox
// polling is disabled.
func New(
	mailIngest *core.MailIngestService,
	suggestions *core.SuggestionService,
	logger *zap.Logger,
	pollInterval time.Duration,
	runAt string,
	runOnStart bool,
) *Scheduler {
	return &Scheduler{
		mailIngest:   mailIngest,
		suggestions:  suggestions,
		logger:       logger,
		pollInterval: pollInterval,
		runAt:        runAt,
		runOnStart:   runOnStart,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the background loops
func (s *Scheduler) Start() error {
	if _, err := time.Parse("15:04", s.runAt); err != nil {
		return fmt.Errorf("invalid suggestion run time %q: %w", s.runAt, err)
	}

	if s.mailIngest != nil {
		s.wg.Add(1)
		go s.pollLoop()
	}

	s.wg.Add(1)
	go s.suggestionLoop()

	return nil
}

// Stop signals the loops to exit and waits for them
func (s *Scheduler) Stop() error {
	close(s.stopCh)
	s.wg.Wait()
	return nil
}

// pollLoop runs one mail batch immediately and then on every tick
func (s *Scheduler) pollLoop() {
	defer s.wg.Done()

	s.runMailBatch()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runMailBatch()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runMailBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.pollInterval)
	defer cancel()

	if err := s.mailIngest.Run(ctx); err != nil {
		s.logger.Error("Mail ingest batch failed", zap.Error(err))
	}
}

// suggestionLoop fires the cadence run once per day at the configured
// wall-clock time
func (s *Scheduler) suggestionLoop() {
	defer s.wg.Done()

	if s.runOnStart {
		s.runSuggestions()
	}

	for {
		wait := time.Until(s.nextRun(time.Now()))
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			s.runSuggestions()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) runSuggestions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.suggestions.Run(ctx); err != nil {
		s.logger.Error("Suggestion run failed", zap.Error(err))
	}
}

// nextRun returns the next occurrence of the configured run time after now
func (s *Scheduler) nextRun(now time.Time) time.Time {
	at, _ := time.Parse("15:04", s.runAt)
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
