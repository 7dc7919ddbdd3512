package session

import (
	"sync"

	"github.com/PabloGalante/onestep/internal/domain"
)

// Registry keeps the live sessions of a process. Sessions share nothing but
// the collaborators handed to New.
type Registry struct {
	gen     domain.ResponseGenerator
	journal domain.JournalRecorder
	opts    Options

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewRegistry(gen domain.ResponseGenerator, journal domain.JournalRecorder, opts Options) *Registry {
	return &Registry{
		gen:      gen,
		journal:  journal,
		opts:     opts,
		sessions: make(map[domain.SessionID]*Session),
	}
}

// Create starts a new idle session, or one resuming task when it is non-empty.
func (r *Registry) Create(resumeTask string) *Session {
	opts := r.opts
	opts.ResumeTask = resumeTask
	s := New(r.gen, r.journal, opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	return s
}

func (r *Registry) Get(id domain.SessionID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close tears down and forgets one session.
func (r *Registry) Close(id domain.SessionID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Close()
	return nil
}

// CloseAll tears down every session. Used on process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[domain.SessionID]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
