// Интерфейс Провайдера, через который работает всё приложение.

package llm

import "context"

// Provider — абстракция над LLM API.
//
// Все адаптеры (OpenAI-совместимые API, моки в тестах) реализуют
// этот интерфейс. Приложение никогда не обращается к SDK напрямую.
type Provider interface {
	// Generate принимает контекст и историю сообщений.
	// Возвращает ответ модели в унифицированном формате Message.
	//
	// opts — опциональные параметры:
	//   - []tools.ToolDefinition: определения функций для Function Calling
	//   - GenerateOption: runtime переопределения (model, temperature, ...)
	Generate(ctx context.Context, messages []Message, opts ...any) (Message, error)
}
