package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/state"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// persistTimeout — время на сохранение истории после конца стрима.
const persistTimeout = 5 * time.Second

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	// Message — последний запрос покупателя (короткая форма).
	Message string `json:"message"`

	// Messages — история диалога, последним идёт запрос покупателя.
	// Используется клиентами, ведущими историю на своей стороне.
	Messages []chatMessage `json:"messages"`

	// SessionID — серверная сессия: история берётся из хранилища.
	SessionID string `json:"session_id"`
}

// createSession — POST /api/sessions: выдаёт новый session_id.
func (s *Server) createSession(c *fiber.Ctx) error {
	session, err := s.sessions.Create(c.Context())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// chat — POST /api/chat: потоковый plain-text ответ ассистента.
//
// Ответ пишется чанками по мере генерации. Ошибки до начала стрима
// отдаются обычным HTTP кодом; ошибка посреди стрима дописывается
// в тело — статус к этому моменту уже отправлен.
func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	query, history, err := s.resolveChatInput(c.Context(), req)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	if req.SessionID != "" {
		c.Set("X-Session-ID", req.SessionID)
	}

	userCtx := c.UserContext()
	sessionID := req.SessionID

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		wrote := false
		result, err := s.assistant.AskStream(userCtx, history, query, func(delta string) {
			wrote = true
			w.WriteString(delta)
			w.Flush()
		})
		if err != nil {
			utils.Error("http: chat stream failed", "error", err)
			w.WriteString("\nПроизошла ошибка, попробуйте ещё раз.")
			w.Flush()
			return
		}

		// Провайдер без стриминга: весь ответ приходит целиком
		if !wrote {
			w.WriteString(result.Answer)
			w.Flush()
		}

		if sessionID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.sessions.AppendMessages(ctx, sessionID, result.Transcript); err != nil {
				utils.Error("http: persist chat history failed", "session", sessionID, "error", err)
			}
		}
	})

	return nil
}

// resolveChatInput извлекает запрос и историю из тела запроса.
func (s *Server) resolveChatInput(ctx context.Context, req chatRequest) (string, []llm.Message, error) {
	query := req.Message
	var history []llm.Message

	if len(req.Messages) > 0 {
		last := req.Messages[len(req.Messages)-1]
		if last.Role != string(llm.RoleUser) {
			return "", nil, fiber.NewError(fiber.StatusBadRequest, "last message must have role 'user'")
		}
		query = last.Content
		for _, m := range req.Messages[:len(req.Messages)-1] {
			history = append(history, llm.Message{
				Role:    llm.Role(m.Role),
				Content: m.Content,
			})
		}
	}

	if query == "" {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	if req.SessionID != "" {
		stored, err := s.sessions.History(ctx, req.SessionID)
		if errors.Is(err, state.ErrSessionNotFound) {
			return "", nil, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		if err != nil {
			return "", nil, fmt.Errorf("load session history: %w", err)
		}
		// Серверная история имеет приоритет над клиентской
		history = stored
	}

	return query, history, nil
}
