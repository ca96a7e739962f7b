package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// minQueryLength is the trimmed query length below which no suggestion fetch
// is scheduled and existing suggestions are cleared.
const minQueryLength = 2

// Searcher is the search capability a session needs.
type Searcher interface {
	Global(ctx context.Context, q string, filters Filters, size int) (*Bundle, error)
	Suggestions(ctx context.Context, q string, size int) []string
}

// SessionConfig holds configuration for a search session.
type SessionConfig struct {
	// Searcher executes the searches (required).
	Searcher Searcher

	// Debounce is the suggestion quiet period (optional, defaults to 300ms).
	Debounce time.Duration

	// SuggestionSize caps the autocomplete list (optional, defaults to 10).
	SuggestionSize int

	// SearchSize caps primary search results (optional, defaults to 50).
	SearchSize int

	// RequestTimeout bounds background fetches started by the session
	// (optional, defaults to 30s).
	RequestTimeout time.Duration

	// Logger for session events.
	Logger zerolog.Logger
}

// Session owns one search interaction: the query string, the committed
// filter set, the current suggestions and the last result bundle. All of it
// is discarded on Close. Responses racing each other are resolved with a
// monotonic sequence guard: only the latest-issued fetch may update state.
type Session struct {
	searcher       Searcher
	debouncer      *Debouncer
	logger         zerolog.Logger
	suggestionSize int
	searchSize     int
	timeout        time.Duration

	suggestSeq atomic.Uint64
	searchSeq  atomic.Uint64

	mu          sync.Mutex
	query       string
	filters     Filters
	suggestions []string
	bundle      *Bundle
	searching   bool
	lastErr     error
}

// NewSession creates a search session.
func NewSession(cfg SessionConfig) *Session {
	suggestionSize := cfg.SuggestionSize
	if suggestionSize <= 0 {
		suggestionSize = DefaultSuggestionSize
	}
	searchSize := cfg.SearchSize
	if searchSize <= 0 {
		searchSize = DefaultSize
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Session{
		searcher:       cfg.Searcher,
		debouncer:      NewDebouncer(cfg.Debounce),
		logger:         cfg.Logger,
		suggestionSize: suggestionSize,
		searchSize:     searchSize,
		timeout:        timeout,
	}
}

// Type records a keystroke. A trimmed query of at least two characters
// schedules a debounced suggestion fetch; anything shorter clears the
// suggestions synchronously and cancels any pending fetch.
func (s *Session) Type(query string) {
	s.mu.Lock()
	s.query = query
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < minQueryLength {
		s.suggestions = nil
		s.mu.Unlock()
		s.debouncer.Cancel()
		return
	}
	s.mu.Unlock()

	s.debouncer.Schedule(func() {
		s.fetchSuggestions(trimmed)
	})
}

func (s *Session) fetchSuggestions(query string) {
	seq := s.suggestSeq.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	suggestions := s.searcher.Suggestions(ctx, query, s.suggestionSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.suggestSeq.Load() {
		// A later fetch was issued while this one was in flight.
		return
	}
	if len(strings.TrimSpace(s.query)) < minQueryLength {
		// The query shrank after this fetch was scheduled.
		return
	}
	s.suggestions = suggestions
}

// ChooseSuggestion commits a suggestion as the query and immediately runs a
// primary search with the current filter set.
func (s *Session) ChooseSuggestion(suggestion string) {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.query = suggestion
	s.suggestions = nil
	s.mu.Unlock()
	s.searchAsync()
}

// SetFilters replaces the filter set. If a query or non-empty filter set is
// present the session re-searches immediately; filter commits do not go
// through the debounce path.
func (s *Session) SetFilters(filters Filters) {
	s.mu.Lock()
	s.filters = filters
	trigger := strings.TrimSpace(s.query) != "" || !filters.IsZero()
	s.mu.Unlock()

	if trigger {
		s.searchAsync()
	}
}

// Search runs the primary search with the current query and filters,
// blocking until the response arrives. The stored bundle is only updated if
// no newer search was issued meanwhile.
func (s *Session) Search(ctx context.Context) (*Bundle, error) {
	seq := s.searchSeq.Add(1)

	s.mu.Lock()
	query := strings.TrimSpace(s.query)
	filters := s.filters
	s.searching = true
	s.mu.Unlock()

	bundle, err := s.searcher.Global(ctx, query, filters, s.searchSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.searchSeq.Load() {
		s.logger.Debug().Str("query", query).Msg("dropping stale search response")
		return bundle, err
	}
	s.searching = false
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.bundle = bundle
	s.lastErr = nil
	return bundle, nil
}

func (s *Session) searchAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.Search(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("background search failed")
		}
	}()
}

// Query returns the current query string.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Filters returns the committed filter set.
func (s *Session) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Suggestions returns a copy of the current suggestion list.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// Results returns the last bundle, whether a search is in flight, and the
// last search error.
func (s *Session) Results() (*Bundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle, s.searching, s.lastErr
}

// Close tears the session down, discarding its ephemeral state.
func (s *Session) Close() {
	s.debouncer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = nil
	s.suggestions = nil
	s.lastErr = nil
}
