// Package models держит все LLM провайдеры приложения в одном реестре.
//
// Модели регистрируются из config.yaml на старте; чат, извлечение
// предпочтений и скоринг берут из реестра каждый свою, с fallback на
// дефолтную модель чата.
package models

import (
	"fmt"
	"sync"

	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/factory"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// Registry отдаёт провайдеры по алиасу модели. Thread-safe.
type Registry struct {
	mu     sync.RWMutex
	models map[string]ModelEntry
}

// ModelEntry — провайдер вместе с определением, из которого он создан.
type ModelEntry struct {
	Provider llm.Provider
	Config   config.ModelDef
}

// NewRegistry создаёт пустой реестр моделей.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]ModelEntry),
	}
}

// Register добавляет модель под алиасом name.
// Дубликат алиаса — ошибка, молча перетирать провайдер нельзя.
func (r *Registry) Register(name string, modelDef config.ModelDef, provider llm.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model '%s' already registered", name)
	}

	r.models[name] = ModelEntry{
		Provider: provider,
		Config:   modelDef,
	}
	return nil
}

// Get находит провайдер по алиасу.
func (r *Registry) Get(name string) (llm.Provider, config.ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.models[name]
	if !ok {
		return nil, config.ModelDef{}, fmt.Errorf("model '%s' not found in registry", name)
	}
	return entry.Provider, entry.Config, nil
}

// GetWithFallback пробует requested, затем defaultModel.
// Третьим значением возвращает алиас, который реально сработал —
// он идёт в логи, чтобы было видно, на какой модели живёт роль.
func (r *Registry) GetWithFallback(requested, defaultModel string) (llm.Provider, config.ModelDef, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.models[requested]; ok {
		return entry.Provider, entry.Config, requested, nil
	}

	if entry, ok := r.models[defaultModel]; ok {
		return entry.Provider, entry.Config, defaultModel, nil
	}

	return nil, config.ModelDef{}, "", fmt.Errorf("neither requested model '%s' nor default '%s' found in registry", requested, defaultModel)
}

// ListNames перечисляет зарегистрированные алиасы. Для логов.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}

// NewRegistryFromConfig строит провайдер для каждой модели из
// cfg.Models.Definitions. Любая неподнявшаяся модель валит старт:
// лучше упасть сразу, чем словить ошибку на первом запросе.
func NewRegistryFromConfig(cfg *config.AppConfig) (*Registry, error) {
	registry := NewRegistry()

	for name, modelDef := range cfg.Models.Definitions {
		provider, err := factory.NewLLMProvider(modelDef)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider for model '%s': %w", name, err)
		}

		if err := registry.Register(name, modelDef, provider); err != nil {
			return nil, fmt.Errorf("failed to register model '%s': %w", name, err)
		}
	}

	return registry, nil
}
