// Package session tracks conversation lifecycles: creation, activity
// tracking, expiry and garbage collection, plus the per-session message log.
package session

import (
	"errors"
	"sync"

	"github.com/avelencia/todo-chat/internal/models"
)

// ErrSessionNotFound is returned for unknown and for expired sessions alike;
// an expired-but-unswept session must never surface stale data.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the keyed session persistence contract. The in-memory
// implementation is the reference; a durable keyed store can replace it
// without changing the manager.
type SessionStore interface {
	Create(session *models.ConversationSession) error
	Get(id string) (*models.ConversationSession, error)
	Update(session *models.ConversationSession) error
	Delete(id string) error
	All() []*models.ConversationSession
}

// MessageStore persists the append-only message log per session.
type MessageStore interface {
	Append(msg *models.Message) error
	BySession(sessionID string, limit int) ([]*models.Message, error)
	DeleteBySession(sessionID string) error
}

// MemorySessionStore is the in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ConversationSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.ConversationSession),
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (s *MemorySessionStore) Create(session *models.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemorySessionStore) Get(id string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *MemorySessionStore) Update(session *models.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return ErrSessionNotFound
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) All() []*models.ConversationSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ConversationSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied := *session
		out = append(out, &copied)
	}
	return out
}

// MemoryMessageStore is the in-memory MessageStore.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{
		messages: make(map[string][]*models.Message),
	}
}

var _ MessageStore = (*MemoryMessageStore)(nil)

func (s *MemoryMessageStore) Append(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &copied)
	return nil
}

func (s *MemoryMessageStore) BySession(sessionID string, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryMessageStore) DeleteBySession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, sessionID)
	return nil
}
