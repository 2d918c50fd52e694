// Package state хранит историю чат-сессий покупателей.
//
// Сессия идентифицируется UUID и накапливает сообщения диалога.
// Две реализации с общим интерфейсом: in-memory для тестов и
// разработки, SQLite для персистентности между перезапусками.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// ErrSessionNotFound возвращается при обращении к несуществующей сессии.
var ErrSessionNotFound = errors.New("session not found")

// Session — метаданные чат-сессии.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store — хранилище сессий и их истории.
type Store interface {
	// Create создаёт новую сессию с UUID идентификатором.
	Create(ctx context.Context) (Session, error)

	// AppendMessages дописывает сообщения в историю сессии.
	// Возвращает ErrSessionNotFound для неизвестной сессии.
	AppendMessages(ctx context.Context, sessionID string, msgs []llm.Message) error

	// History возвращает последние сообщения сессии (не больше
	// лимита хранилища), в хронологическом порядке.
	// Возвращает ErrSessionNotFound для неизвестной сессии.
	History(ctx context.Context, sessionID string) ([]llm.Message, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}

// clampHistory возвращает хвост истории длиной не больше limit.
//
// Граница среза сдвигается назад, пока хвост начинается с tool
// сообщения: его родительское assistant сообщение с tool_calls
// осталось бы за срезом, а OpenAI-совместимые API отвергают tool
// сообщение без родителя. Хвост из-за этого может быть длиннее
// limit на несколько сообщений одного хода.
//
// limit <= 0 означает "без ограничения".
func clampHistory(msgs []llm.Message, limit int) []llm.Message {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	start := len(msgs) - limit
	for start > 0 && msgs[start].Role == llm.RoleTool {
		start--
	}
	return msgs[start:]
}
