package editor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"villagemap/internal/app/ports"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
)

var ErrSessionNotFound = fmt.Errorf("editor session: %w", ports.ErrNotFound)

const DefaultSessionTTL = 10 * time.Minute

type ManagerConfig struct {
	TTL   time.Duration
	Now   func() time.Time
	NewID func() string
}

// Manager hands out sessions to request/response transports. The map is
// shared; each session is driven by one caller at a time.
type Manager struct {
	deps  Deps
	ttl   time.Duration
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*managedSession
}

// managedSession keeps lastUsed outside mu so sweeping never waits on an
// in-flight operation.
type managedSession struct {
	mu       sync.Mutex
	session  *Session
	lastUsed atomic.Int64
}

func (ms *managedSession) touch(t time.Time) {
	ms.lastUsed.Store(t.UnixNano())
}

func NewManager(deps Deps, cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Manager{
		deps:     deps,
		ttl:      cfg.TTL,
		now:      cfg.Now,
		newID:    cfg.NewID,
		sessions: map[string]*managedSession{},
	}
}

func (m *Manager) Open(ctx context.Context, village string) (string, View, error) {
	s, view, err := Open(ctx, m.deps, village)
	if err != nil {
		return "", View{}, err
	}
	id := m.newID()
	ms := &managedSession{session: s}
	ms.touch(m.now())
	m.mu.Lock()
	m.sessions[id] = ms
	m.mu.Unlock()
	hlog.CtxInfof(ctx, "editor session %s opened for %s", id, s.Village())
	return id, view, nil
}

// Do runs fn against the session while holding its lock. Expired sessions are
// treated as missing.
func (m *Manager) Do(ctx context.Context, id string, fn func(s *Session) error) error {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok && m.expired(ms) {
		delete(m.sessions, id)
		ok = false
		hlog.CtxInfof(ctx, "editor session %s expired", id)
	}
	if ok {
		ms.touch(m.now())
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	defer func() { ms.touch(m.now()) }()
	return fn(ms.session)
}

func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Sweep drops idle sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, ms := range m.sessions {
		if m.expired(ms) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				hlog.Infof("editor: swept %d idle sessions", n)
			}
		}
	}
}

func (m *Manager) expired(ms *managedSession) bool {
	last := time.Unix(0, ms.lastUsed.Load())
	return m.now().Sub(last) > m.ttl
}
