// Базовые типы — универсальный язык общения с моделями.
package llm

// Role — роль участника диалога.
type Role string

// Константы ролей для удобства.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение в истории диалога.
//
// Содержит либо текстовый контент, либо tool calls от модели,
// либо результат выполнения инструмента (Role == RoleTool).
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls — вызовы инструментов, которые решила сделать модель.
	// Заполнено только для assistant сообщений.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID — идентификатор вызова, на который отвечает это сообщение.
	// Заполнено только для tool сообщений.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall — запрос модели на выполнение инструмента.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"` // Сырой JSON с аргументами
}

// UserMessage создаёт user сообщение с текстом.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// SystemMessage создаёт system сообщение с текстом.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}
