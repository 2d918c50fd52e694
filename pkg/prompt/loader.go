// Чтение YAML промптов и рендер через text/template.

package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Load читает и парсит YAML файл промпта.
// Промпт без единого сообщения считается ошибкой формата.
func Load(path string) (*PromptFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	if len(pf.Messages) == 0 {
		return nil, fmt.Errorf("prompt file %s has no messages", path)
	}

	return &pf, nil
}

// LoadFromDir читает промпт по имени без расширения:
// LoadFromDir("prompts", "assistant_system") откроет
// prompts/assistant_system.yaml.
func LoadFromDir(dir, name string) (*PromptFile, error) {
	return Load(filepath.Join(dir, name+".yaml"))
}

// RenderMessages подставляет data (struct или map) во все
// {{.Field}} плейсхолдеры сообщений промпта.
func (pf *PromptFile) RenderMessages(data interface{}) ([]Message, error) {
	rendered := make([]Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		tmpl, err := template.New("msg").Parse(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execute error in message #%d: %w", i, err)
		}

		rendered[i] = Message{
			Role:    msg.Role,
			Content: buf.String(),
		}
	}

	return rendered, nil
}

// SystemText возвращает контент первого system сообщения промпта.
//
// Удобно для промптов, состоящих из одного системного сообщения
// (например, системный промпт ассистента).
func (pf *PromptFile) SystemText() string {
	for _, msg := range pf.Messages {
		if msg.Role == "system" {
			return msg.Content
		}
	}
	return ""
}
