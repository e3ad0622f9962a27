package steward

import (
	"sync"
)

// memStore is an in-memory StateStore for tests.
type memStore struct {
	mu      sync.Mutex
	state   *SystemState
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() (*SystemState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.state, nil
}

func (m *memStore) Save(state *SystemState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *state
	m.state = &copied
	m.saves++
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
