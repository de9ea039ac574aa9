package playback

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vidview/vidview/internal/plans"
)

// Manager tracks the open playback sessions. Sessions serialize their own
// operations; the manager's lock only guards the registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed
	notifier Notifier
}

type managed struct {
	session *Session
	sink    *RecordingSink
}

func NewManager(notifier Notifier) *Manager {
	return &Manager{
		sessions: make(map[string]*managed),
		notifier: notifier,
	}
}

// Open creates a session for the given video with its own recording sink.
func (m *Manager) Open(videoID string, sources []VideoSource, plan plans.Plan) (*Session, *RecordingSink, error) {
	sink := NewRecordingSink()
	id := uuid.NewString()
	session, err := NewSession(id, videoID, sources, plan, sink, m.notifier)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.sessions[id] = &managed{session: session, sink: sink}
	m.mu.Unlock()
	return session, sink, nil
}

func (m *Manager) Get(id string) (*Session, *RecordingSink, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, nil, false
	}
	return e.session, e.sink, true
}

// Close stops and drops a session. Unknown ids are ignored.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		e.session.Stop()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
