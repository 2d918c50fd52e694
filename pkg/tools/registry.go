// Потокобезопасный реестр инструментов ассистента.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Registry хранит инструменты по имени и отдаёт их определения для LLM.
// Все методы безопасны для конкурентного вызова.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register валидирует схему инструмента и добавляет его в реестр.
// Повторная регистрация под тем же именем заменяет инструмент.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if err := checkDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = tool
	return nil
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}
	return tool, nil
}

// GetDefinitions собирает определения всех инструментов.
// Результат отправляется в LLM вместе с запросом.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

// checkDefinition проверяет минимальный контракт JSON Schema,
// который требует Function Calling API: непустое имя, параметры
// с type=object и required из строк. Сломанная схема тихо ломает
// вызовы на стороне модели, поэтому ловим её на регистрации.
func checkDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Parameters == nil {
		return fmt.Errorf("tool '%s': parameters cannot be nil", def.Name)
	}

	// Прогоняем через JSON: Parameters может быть любым типом,
	// а проверять структуру удобно на map
	raw, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("tool '%s': failed to marshal parameters: %w", def.Name, err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return fmt.Errorf("tool '%s': parameters must be a JSON object, got: %s", def.Name, string(raw))
	}

	typeStr, ok := schema["type"].(string)
	if !ok {
		return fmt.Errorf("tool '%s': parameters must have a string 'type' field", def.Name)
	}
	if typeStr != "object" {
		return fmt.Errorf("tool '%s': parameters.type must be 'object', got: '%s'", def.Name, typeStr)
	}

	if requiredVal, exists := schema["required"]; exists {
		items, ok := requiredVal.([]interface{})
		if !ok {
			return fmt.Errorf("tool '%s': parameters.required must be an array", def.Name)
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("tool '%s': parameters.required[%d] must be a string, got: %T", def.Name, i, item)
			}
		}
	}

	return nil
}
