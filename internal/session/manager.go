package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the live runner per session id so a logout arriving over
// HTTP can tear down the watcher owned by the websocket connection.
type Manager struct {
	mu      sync.Mutex
	runners map[uuid.UUID]*Runner
}

func NewManager() *Manager {
	return &Manager{runners: make(map[uuid.UUID]*Runner)}
}

// Put registers a runner, stopping any previous runner for the same
// session id.
func (m *Manager) Put(sessionID uuid.UUID, r *Runner) {
	m.mu.Lock()
	prev := m.runners[sessionID]
	m.runners[sessionID] = r
	m.mu.Unlock()

	if prev != nil && prev != r {
		prev.Stop()
	}
}

func (m *Manager) Get(sessionID uuid.UUID) *Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runners[sessionID]
}

// Remove drops the mapping without stopping the runner.
func (m *Manager) Remove(sessionID uuid.UUID, r *Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runners[sessionID] == r {
		delete(m.runners, sessionID)
	}
}

// Stop ends the runner for one session, if any.
func (m *Manager) Stop(sessionID uuid.UUID) {
	m.mu.Lock()
	r := m.runners[sessionID]
	delete(m.runners, sessionID)
	m.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

// StopAll tears down every live session, for shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.runners))
	for id, r := range m.runners {
		runners = append(runners, r)
		delete(m.runners, id)
	}
	m.mu.Unlock()

	for _, r := range runners {
		r.Stop()
	}
}
