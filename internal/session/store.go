package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/maplayer"
	"github.com/hydroviewer/hydroviewer/internal/render"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 30 * time.Minute

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	// Composer builds views (required).
	Composer Composer

	// Renderer draws charts (default: go-chart backend).
	Renderer *render.Renderer

	// Overlays loads map overlays (required for layer toggles).
	Overlays maplayer.OverlayAPI

	// MapSize is used to fit overlays (default: maplayer.DefaultSize).
	MapSize maplayer.Size

	// IdleTTL expires sessions that were not used for this long (default: 30m).
	IdleTTL time.Duration

	Clock  clockwork.Clock
	Logger zerolog.Logger
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Store owns all live sessions.
type Store struct {
	cfg   StoreConfig
	clock clockwork.Clock

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewRenderer(nil, cfg.Logger)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		cfg:      cfg,
		clock:    clock,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session with nothing selected.
func (st *Store) Create(ctx context.Context) *Session {
	now := st.clock.Now()
	s := &Session{
		id:        "ses_" + uuid.New().String(),
		createdAt: now,
		composer:  st.cfg.Composer,
		canvases:  render.NewCanvases(st.cfg.Renderer),
		layers: maplayer.NewManager(maplayer.ManagerConfig{
			API:    st.cfg.Overlays,
			Size:   st.cfg.MapSize,
			Logger: st.cfg.Logger,
		}),
		logger: st.cfg.Logger,
	}
	s.view = st.cfg.Composer.Compose(ctx, s.requestLocked())

	st.mu.Lock()
	st.sessions[s.id] = &entry{session: s, lastSeen: now}
	st.mu.Unlock()

	st.cfg.Logger.Debug().Str("session_id", s.id).Msg("session created")
	return s
}

// Get returns a session and marks it used. Expired sessions are removed and reported
// as not found.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := st.clock.Now()
	if now.Sub(e.lastSeen) > st.cfg.IdleTTL {
		st.removeLocked(id)
		return nil, ErrNotFound
	}
	e.lastSeen = now
	return e.session, nil
}

// Delete ends a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	st.removeLocked(id)
	return nil
}

// Sweep removes idle sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.clock.Now()
	removed := 0
	for id, e := range st.sessions {
		if now.Sub(e.lastSeen) > st.cfg.IdleTTL {
			st.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions, including idle ones not yet swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) removeLocked(id string) {
	if e, ok := st.sessions[id]; ok {
		e.session.close()
		delete(st.sessions, id)
	}
}

// Run sweeps idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.cfg.IdleTTL / 2
	}
	ticker := st.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := st.Sweep(); n > 0 {
				st.cfg.Logger.Info().Int("removed", n).Msg("swept idle sessions")
			}
		}
	}
}
