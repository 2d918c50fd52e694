// Структуры данных — описывает формат YAML файла промпта.
package prompt

// PromptFile описывает структуру YAML-файла с промптом.
type PromptFile struct {
	Config   PromptConfig `yaml:"config"`
	Messages []Message    `yaml:"messages"`
}

// PromptConfig - настройки модели для конкретного промпта.
//
// Позволяет промпту переопределять дефолтные параметры из config.yaml
// (например, format: json_object для извлечения предпочтений).
type PromptConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Format      string  `yaml:"format"` // "json_object" или text
}

// Message - одно сообщение в чате.
type Message struct {
	Role    string `yaml:"role"`    // system, user, assistant
	Content string `yaml:"content"` // Шаблон с {{.Variables}}
}
