package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store is the catalog lookup surface the service needs.
type Store interface {
	// FindBySynonym returns every item the normalized synonym maps to.
	FindBySynonym(ctx context.Context, normalized string) ([]Item, error)
	// ActiveItems returns the sellable catalog.
	ActiveItems(ctx context.Context) ([]Item, error)
}

// Suggester proposes catalog items for an utterance the synonym table
// missed. Candidates must come from the supplied catalog; an empty
// candidate list with a non-empty message means "politely explain there is
// no such item".
type Suggester interface {
	Suggest(ctx context.Context, input string, catalog []Item) (message string, candidates []Item, err error)
}

type Service struct {
	store     Store
	suggester Suggester
	logger    *slog.Logger
}

func NewService(store Store, suggester Suggester, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, suggester: suggester, logger: logger}
}

// Search resolves an utterance: synonym table first, then the suggester.
// Search never fails the caller for suggester errors; those degrade to a
// no-match result.
func (s *Service) Search(ctx context.Context, text string) (SearchResult, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return NoMatch(), nil
	}

	matches, err := s.store.FindBySynonym(ctx, normalized)
	if err != nil {
		return NoMatch(), fmt.Errorf("synonym lookup: %w", err)
	}
	switch len(matches) {
	case 0:
	case 1:
		return DirectMatch(matches[0]), nil
	default:
		return AmbiguousMatch(matches), nil
	}

	if s.suggester == nil {
		return NoMatch(), nil
	}

	catalog, err := s.store.ActiveItems(ctx)
	if err != nil {
		return NoMatch(), fmt.Errorf("load catalog: %w", err)
	}

	message, candidates, err := s.suggester.Suggest(ctx, text, catalog)
	if err != nil {
		s.logger.Warn("menu suggestion failed", "input", text, "error", err)
		return NoMatch(), nil
	}
	if len(candidates) == 0 && strings.TrimSpace(message) == "" {
		return NoMatch(), nil
	}
	return Suggestion(message, candidates), nil
}

// Normalize lowercases and strips whitespace and common punctuation so
// synonym rows match the way people actually speak.
func Normalize(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch r {
		case ' ', '\t', '\n', '.', ',', '!', '?':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
