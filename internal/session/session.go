package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"people-search/internal/domain"
)

// State is the lifecycle phase of a search session.
type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateInFlight   State = "inFlight"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Searcher is the slice of the search service a session needs.
type Searcher interface {
	Search(ctx context.Context, viewerID, text string, limit int, after string) (domain.Page, error)
}

// Update is a snapshot pushed to the session consumer whenever visible
// state changes. Cancelled operations never produce an Update.
type Update struct {
	State    State
	Query    string
	Items    []domain.SearchUser
	HasMore  bool
	Appended bool
	Err      error
}

// Config tunes a session. Zero values get defaults.
type Config struct {
	ViewerID string
	Limit    int
	Debounce time.Duration
	Timeout  time.Duration
	OnUpdate func(Update)
	Logger   *logrus.Logger
}

// Session runs the debounced, cancelable request lifecycle for one search
// view: each new input cancels any pending debounce or in-flight query and
// restarts the machine; completions apply only while their generation is
// still current, so stale results are never surfaced (last-writer-wins).
type Session struct {
	cfg      Config
	searcher Searcher

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	query      string
	items      []domain.SearchUser
	hasMore    bool
	nextCursor string
	loading    bool
	closed     bool

	emitMu sync.Mutex
	wg     sync.WaitGroup
}

func New(searcher Searcher, cfg Config) *Session {
	if cfg.Debounce == 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Limit == 0 {
		cfg.Limit = domain.SearchLimitDefault
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Session{
		cfg:      cfg,
		searcher: searcher,
		state:    StateIdle,
	}
}

// SetInput feeds a keystroke. The previous pending operation (debounce
// timer or network call) is canceled before the new one starts.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateDebouncing
	s.loading = false
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, gen, text)
	}()
}

func (s *Session) run(ctx context.Context, gen uint64, text string) {
	timer := time.NewTimer(s.cfg.Debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if !s.transition(gen, StateInFlight) {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	page, err := s.searcher.Search(reqCtx, s.cfg.ViewerID, text, s.cfg.Limit, "")

	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.mu.Unlock()
			return
		}
		s.state = StateFailed
		update := Update{State: StateFailed, Query: text, Err: err}
		s.mu.Unlock()
		s.cfg.Logger.Warnf("search %q: %v", text, err)
		s.emit(update)
		return
	}

	s.state = StateReady
	s.query = page.Query
	s.items = page.Items
	s.hasMore = page.HasMore
	s.nextCursor = page.NextCursor
	update := s.snapshotLocked(false)
	s.mu.Unlock()

	s.emit(update)
}

// LoadMore fetches the next page. It is independent of the debounce path
// and is a no-op unless the session is ready, idle, and knows a next page
// exists.
func (s *Session) LoadMore() {
	s.mu.Lock()
	if s.closed || s.loading || s.state != StateReady || !s.hasMore || s.nextCursor == "" {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	query := s.query
	cursor := s.nextCursor
	s.loading = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		reqCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		page, err := s.searcher.Search(reqCtx, s.cfg.ViewerID, query, s.cfg.Limit, cursor)

		s.mu.Lock()
		if gen != s.generation || s.closed {
			s.mu.Unlock()
			return
		}
		s.loading = false
		if err != nil {
			if errors.Is(err, context.Canceled) {
				s.mu.Unlock()
				return
			}
			update := Update{State: StateReady, Query: query, Err: err}
			s.mu.Unlock()
			s.cfg.Logger.Warnf("load more %q: %v", query, err)
			s.emit(update)
			return
		}

		s.items = append(s.items, page.Items...)
		s.hasMore = page.HasMore
		s.nextCursor = page.NextCursor
		update := s.snapshotLocked(true)
		s.mu.Unlock()

		s.emit(update)
	}()
}

// Close cancels any pending work and waits for goroutines to drain.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Snapshot returns the currently visible state.
func (s *Session) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(false)
}

// transition flips state if gen is still current; it reports success.
func (s *Session) transition(gen uint64, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		return false
	}
	s.state = state
	return true
}

// snapshotLocked copies visible state; callers hold mu.
func (s *Session) snapshotLocked(appended bool) Update {
	items := make([]domain.SearchUser, len(s.items))
	copy(items, s.items)
	return Update{
		State:    s.state,
		Query:    s.query,
		Items:    items,
		HasMore:  s.hasMore,
		Appended: appended,
	}
}

// emit delivers an update; serialized so consumers see them in order.
func (s *Session) emit(u Update) {
	if s.cfg.OnUpdate == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.cfg.OnUpdate(u)
}
