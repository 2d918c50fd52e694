package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// MemoryStore — хранилище сессий в памяти процесса.
//
// Thread-safe. История теряется при перезапуске.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]Session
	messages     map[string][]llm.Message
	historyLimit int
}

// NewMemoryStore создаёт in-memory хранилище.
//
// historyLimit ограничивает количество сообщений, возвращаемых History;
// 0 — без ограничения.
func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]Session),
		messages:     make(map[string][]llm.Message),
		historyLimit: historyLimit,
	}
}

// Create создаёт новую сессию.
func (s *MemoryStore) Create(ctx context.Context) (Session, error) {
	session := Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session, nil
}

// AppendMessages дописывает сообщения в историю сессии.
func (s *MemoryStore) AppendMessages(ctx context.Context, sessionID string, msgs []llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.messages[sessionID] = append(s.messages[sessionID], msgs...)
	return nil
}

// History возвращает последние сообщения сессии.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]llm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}

	msgs := clampHistory(s.messages[sessionID], s.historyLimit)
	result := make([]llm.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// Close освобождает ресурсы (no-op для памяти).
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
