package auth

import (
	"sync"

	"github.com/campusclinic/console/pkg/common/logger"
	"github.com/campusclinic/console/pkg/common/models"
)

// State of the session lifecycle. The manager starts Initializing, resolves
// to Anonymous or Authenticated on Init, and only Login/Logout move it after
// that.
type State int

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

// Manager owns the process-wide session. It is constructed once at startup
// and handed to everything that needs identity; there is no package-level
// session variable. Concurrent Login/Logout resolve last-write-wins.
type Manager struct {
	mu      sync.RWMutex
	store   *TokenStore
	state   State
	session models.Session
}

func NewManager(store *TokenStore) *Manager {
	return &Manager{store: store, state: StateInitializing}
}

// Init reads the stored credential and resolves the initial state. A stored
// credential that no longer decodes is cleared and the manager degrades to
// Anonymous; Init never fails.
func (m *Manager) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.store.Read()
	if token == "" {
		m.state = StateAnonymous
		return
	}

	session, err := DecodeCredential(token)
	if err != nil {
		logger.Log.WithError(err).Warn("stored credential no longer decodes, clearing")
		_ = m.store.Clear()
		m.state = StateAnonymous
		return
	}

	m.state = StateAuthenticated
	m.session = session
}

// Login decodes the supplied token, persists it, and transitions to
// Authenticated. On decode failure the state is left untouched and the error
// returned to the caller.
func (m *Manager) Login(token string) (models.Session, error) {
	session, err := DecodeCredential(token)
	if err != nil {
		return models.Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(token); err != nil {
		return models.Session{}, err
	}
	m.state = StateAuthenticated
	m.session = session
	return session, nil
}

// Logout clears the stored credential and transitions to Anonymous. It is
// unconditional and succeeds from any state.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.store.Clear()
	m.state = StateAnonymous
	m.session = models.Session{}
}

// Current returns the state and, when Authenticated, a read-only copy of the
// session.
func (m *Manager) Current() (State, models.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.session
}

// Authenticated reports whether a session is active.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated
}
