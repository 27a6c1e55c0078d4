package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SuggestionService runs the daily cadence pass: read the full purchase
// history, classify every item, and fully replace the stored suggestion
// set. Runs never overlap; a second Run blocks until the first is done.
type SuggestionService struct {
	orders      OrderStore
	suggestions SuggestionStore
	engine      *CadenceEngine
	logger      *zap.Logger

	mu sync.Mutex
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(
	orders OrderStore,
	suggestions SuggestionStore,
	engine *CadenceEngine,
	logger *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		orders:      orders,
		suggestions: suggestions,
		engine:      engine,
		logger:      logger,
	}
}

// Run recomputes the suggestion set. Idempotent: unchanged history
// yields an identical set.
func (s *SuggestionService) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.orders.PurchaseHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load purchase history: %w", err)
	}

	suggestions := s.engine.Suggest(history)

	if err := s.suggestions.ReplaceAll(ctx, suggestions); err != nil {
		return fmt.Errorf("failed to replace suggestions: %w", err)
	}

	s.logger.Info("Suggestion run complete",
		zap.Int("history_entries", len(history)),
		zap.Int("suggestions", len(suggestions)))
	return nil
}

// List returns the current suggestion set
func (s *SuggestionService) List(ctx context.Context) ([]Suggestion, error) {
	return s.suggestions.ListSuggestions(ctx)
}
