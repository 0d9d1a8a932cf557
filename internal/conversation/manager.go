package conversation

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"bobbystable/internal/clock"
)

var ErrUnknownCall = errors.New("unknown call")

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager owns the live sessions, one per call. Turns on the same call
// are serialised; different calls proceed in parallel.
type Manager struct {
	machine *Machine
	clock   clock.Clock

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(machine *Machine, clk clock.Clock) *Manager {
	return &Manager{
		machine:  machine,
		clock:    clk,
		sessions: make(map[string]*entry),
	}
}

// Begin opens a session for callID, generating an ID when it is empty.
// Beginning a call that is already live repeats its current question.
func (m *Manager) Begin(callID string) Reply {
	if callID == "" {
		callID = uuid.NewString()
	}

	m.mu.Lock()
	e, ok := m.sessions[callID]
	if !ok {
		s, reply := m.machine.NewSession(callID)
		m.sessions[callID] = &entry{session: s}
		m.mu.Unlock()
		log.Printf("Call %s started", callID)
		return reply
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return m.machine.Describe(e.session)
}

func (m *Manager) lookup(callID string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[callID]
	if !ok {
		return nil, ErrUnknownCall
	}
	return e, nil
}

// Handle runs one action on the call. Hanging up also ends the call.
func (m *Manager) Handle(callID string, in Input) (Reply, error) {
	e, err := m.lookup(callID)
	if err != nil {
		return Reply{}, err
	}

	e.mu.Lock()
	reply := m.machine.Handle(e.session, in)
	e.mu.Unlock()

	if in.Action == ActionHangup {
		m.remove(callID, e)
	}
	return reply, nil
}

func (m *Manager) Describe(callID string) (Reply, error) {
	e, err := m.lookup(callID)
	if err != nil {
		return Reply{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return m.machine.Describe(e.session), nil
}

// End hangs up the call. Any booking in progress is discarded.
func (m *Manager) End(callID string) (Reply, error) {
	return m.Handle(callID, Input{Action: ActionHangup})
}

func (m *Manager) remove(callID string, e *entry) {
	m.mu.Lock()
	if m.sessions[callID] == e {
		delete(m.sessions, callID)
	}
	m.mu.Unlock()
	log.Printf("Call %s ended", callID)
}

// ReapIdle abandons sessions with no activity for longer than maxIdle and
// returns how many it removed.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := m.clock.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []string
	for id, e := range m.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.session.LastActivity.Before(cutoff) {
			m.machine.Handle(e.session, Input{Action: ActionHangup})
			stale = append(stale, id)
		}
		e.mu.Unlock()
	}
	for _, id := range stale {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if len(stale) > 0 {
		log.Printf("Cron Job: abandoned %d idle call(s)", len(stale))
	}
	return len(stale)
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
