package labels

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/pkg/translate"
)

// Session is one workspace addressed by id
type Session struct {
	ID        string
	CreatedAt time.Time
	Workspace *Workspace
}

// Sessions owns the open workspaces
type Sessions struct {
	mu         sync.Mutex
	items      map[string]*Session
	translator translate.Translator
	logger     *zap.Logger
}

// NewSessions creates an empty session map whose workspaces share translator
func NewSessions(translator translate.Translator, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		items:      make(map[string]*Session),
		translator: translator,
		logger:     logger,
	}
}

// Create opens a workspace with the given options
func (s *Sessions) Create(opts Options) *Session {
	id := uuid.NewString()
	sess := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Workspace: NewWorkspace(s.translator, opts, s.logger.With(zap.String("session", id))),
	}

	s.mu.Lock()
	s.items[id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns an open session
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	return sess, ok
}

// Delete closes a session and reports whether it existed
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Len returns the number of open sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Expire closes sessions created before cutoff and returns their ids in order
func (s *Sessions) Expire(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, sess := range s.items {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.items, id)
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
