// SQLite хранилище сессий.
//
// Сообщения лежат в одной таблице с автоинкрементным порядком.
// Tool calls сериализуются в JSON колонку: структура сообщения
// восстанавливается без дополнительных таблиц.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// SQLiteStore — персистентное хранилище сессий.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
}

// NewSQLiteStore открывает (или создаёт) базу по указанному пути.
//
// historyLimit ограничивает количество сообщений, возвращаемых History;
// 0 — без ограничения.
func NewSQLiteStore(dbPath string, historyLimit int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, historyLimit: historyLimit}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate создаёт схему если её ещё нет.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS session_messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL REFERENCES sessions(id),
		role         TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		tool_call_id TEXT NOT NULL DEFAULT '',
		tool_calls   TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_messages_session
		ON session_messages(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close закрывает соединение с базой.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create создаёт новую сессию.
func (s *SQLiteStore) Create(ctx context.Context) (Session, error) {
	session := Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?)`,
		session.ID, session.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// AppendMessages дописывает сообщения в историю сессии одной транзакцией.
func (s *SQLiteStore) AppendMessages(ctx context.Context, sessionID string, msgs []llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	exists, err := s.sessionExists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_messages (session_id, role, content, tool_call_id, tool_calls, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, msg := range msgs {
		toolCalls := ""
		if len(msg.ToolCalls) > 0 {
			raw, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("marshal tool calls: %w", err)
			}
			toolCalls = string(raw)
		}

		if _, err := stmt.ExecContext(ctx,
			sessionID, string(msg.Role), msg.Content, msg.ToolCallID, toolCalls, now); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// History возвращает последние сообщения сессии в хронологическом порядке.
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]llm.Message, error) {
	exists, err := s.sessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	// Лимит накладывается в Go через clampHistory: граница среза
	// зависит от ролей сообщений, SQL LIMIT резал бы ход посередине
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_call_id, tool_calls
		FROM session_messages
		WHERE session_id = ?
		ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var role, content, toolCallID, toolCalls string
		if err := rows.Scan(&role, &content, &toolCallID, &toolCalls); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		msg := llm.Message{
			Role:       llm.Role(role),
			Content:    content,
			ToolCallID: toolCallID,
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return clampHistory(msgs, s.historyLimit), nil
}

func (s *SQLiteStore) sessionExists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return true, nil
}

var _ Store = (*SQLiteStore)(nil)
