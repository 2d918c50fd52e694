package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// ChainContext — общее состояние одного прогона цепочки.
// Поля закрыты, доступ только через методы под RWMutex.
type ChainContext struct {
	mu sync.RWMutex

	// Запрос пользователя (неизменяемый после создания)
	userQuery string

	// История сообщений LLM
	messages []llm.Message

	// Произвольные значения, передаваемые между шагами
	values map[string]any

	// Финальный результат цепочки
	result string
}

// NewChainContext создаёт контекст для одного пользовательского запроса.
func NewChainContext(userQuery string) *ChainContext {
	return &ChainContext{
		userQuery: userQuery,
		messages:  make([]llm.Message, 0, 10),
		values:    make(map[string]any),
	}
}

// UserQuery возвращает запрос пользователя (thread-safe).
func (c *ChainContext) UserQuery() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userQuery
}

// GetMessages возвращает копию истории: вызывающий может менять
// срез, не трогая состояние цепочки.
func (c *ChainContext) GetMessages() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]llm.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// AppendMessage дописывает сообщение в историю.
func (c *ChainContext) AppendMessage(msg llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
}

// Set сохраняет значение под ключом (thread-safe).
//
// Используется для передачи данных между шагами:
// извлечённые предпочтения, отфильтрованные товары и т.д.
func (c *ChainContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get извлекает значение по ключу (thread-safe).
func (c *ChainContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString извлекает строковое значение по ключу (thread-safe).
//
// Возвращает пустую строку если ключ отсутствует или значение не строка.
func (c *ChainContext) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.values[key].(string); ok {
		return s
	}
	return ""
}

// SetResult устанавливает финальный результат цепочки (thread-safe).
func (c *ChainContext) SetResult(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
}

// Result возвращает финальный результат цепочки (thread-safe).
func (c *ChainContext) Result() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// String — краткая сводка контекста для логов.
func (c *ChainContext) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("ChainContext{")
	sb.WriteString(fmt.Sprintf("Query: %q, ", c.userQuery))
	sb.WriteString(fmt.Sprintf("Messages: %d, ", len(c.messages)))
	sb.WriteString(fmt.Sprintf("Values: %d", len(c.values)))
	sb.WriteString("}")

	return sb.String()
}
