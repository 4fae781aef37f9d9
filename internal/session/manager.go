package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/models"
)

// ManagerConfig holds the session lifecycle tunables.
type ManagerConfig struct {
	IdleTimeout   time.Duration // expiry since last activity
	MaxAge        time.Duration // total-age ceiling regardless of activity
	SweepInterval time.Duration
}

// DefaultManagerConfig returns the stock lifecycle settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		IdleTimeout:   30 * time.Minute,
		MaxAge:        24 * time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// Manager binds sessions to user identities and enforces their lifecycle:
// active -> expired (idle timeout or max age) -> reaped by the periodic sweep.
type Manager struct {
	sessions SessionStore
	messages MessageStore
	cfg      ManagerConfig
	logger   *zap.Logger
	now      func() time.Time
	stop     chan struct{}
}

func NewManager(sessions SessionStore, messages MessageStore, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultManagerConfig().IdleTimeout
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultManagerConfig().MaxAge
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultManagerConfig().SweepInterval
	}
	return &Manager{
		sessions: sessions,
		messages: messages,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// GetOrCreate returns the live session when it exists and belongs to the
// user; otherwise it starts a new one. An expired session is never revived,
// only superseded.
func (m *Manager) GetOrCreate(sessionID string, userID int64) (*models.ConversationSession, error) {
	if sessionID != "" {
		session, err := m.Get(sessionID)
		if err == nil && session.UserID == userID {
			return session, nil
		}
		if err != nil && err != ErrSessionNotFound {
			return nil, err
		}
	}

	now := m.now()
	session := &models.ConversationSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		Active:       true,
	}
	if err := m.sessions.Create(session); err != nil {
		return nil, err
	}

	m.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.Int64("user_id", userID))
	return session, nil
}

// Get returns the session or ErrSessionNotFound. An expired session behaves
// as missing even before the sweep removes it; it is marked inactive so it
// can never flip back.
func (m *Manager) Get(sessionID string) (*models.ConversationSession, error) {
	session, err := m.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if m.expired(session) {
		if session.Active {
			session.Active = false
			_ = m.sessions.Update(session)
		}
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Touch records activity on a session.
func (m *Manager) Touch(sessionID string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	session.LastActiveAt = m.now()
	return m.sessions.Update(session)
}

// Append stores a message on a live session and counts as activity.
func (m *Manager) Append(msg *models.Message) error {
	if _, err := m.Get(msg.SessionID); err != nil {
		return err
	}
	if err := m.messages.Append(msg); err != nil {
		return err
	}
	return m.Touch(msg.SessionID)
}

// History returns the last limit messages of a live session in arrival order.
func (m *Manager) History(sessionID string, limit int) ([]*models.Message, error) {
	if _, err := m.Get(sessionID); err != nil {
		return nil, err
	}
	return m.messages.BySession(sessionID, limit)
}

// Sweep removes every expired session and its messages. Removal is
// unconditional and not reversible; re-running a sweep on an already-removed
// session is a no-op.
func (m *Manager) Sweep() {
	for _, session := range m.sessions.All() {
		if !m.expired(session) {
			continue
		}
		if err := m.messages.DeleteBySession(session.ID); err != nil {
			m.logger.Error("failed to delete session messages",
				zap.Error(err),
				zap.String("session_id", session.ID))
			continue
		}
		if err := m.sessions.Delete(session.ID); err != nil {
			m.logger.Error("failed to delete session",
				zap.Error(err),
				zap.String("session_id", session.ID))
			continue
		}
		m.logger.Info("session reaped",
			zap.String("session_id", session.ID),
			zap.Int64("user_id", session.UserID))
	}
}

// Start launches the periodic sweep. Stop ends it.
func (m *Manager) Start() {
	go func() {
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.stop)
}

func (m *Manager) expired(session *models.ConversationSession) bool {
	if !session.Active {
		return true
	}
	now := m.now()
	if now.Sub(session.LastActiveAt) > m.cfg.IdleTimeout {
		return true
	}
	return now.Sub(session.CreatedAt) > m.cfg.MaxAge
}
