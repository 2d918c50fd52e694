package workflow

import (
	"context"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/prompt"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// defaultExtractPrompt — встроенный промпт извлечения предпочтений.
//
// Используется когда YAML промпт не загружен (тесты, минимальная сборка).
func defaultExtractPrompt() *prompt.PromptFile {
	return &prompt.PromptFile{
		Config: prompt.PromptConfig{
			Temperature: 0.1,
			Format:      "json_object",
		},
		Messages: []prompt.Message{
			{
				Role: "system",
				Content: "Ты извлекаешь предпочтения покупателя из запроса к магазину.\n" +
					"Ответь строго JSON объектом с полями:\n" +
					"keyword (строка), category (строка), min_price (число, рубли),\n" +
					"max_price (число, рубли), sort_by (price_asc | price_desc | stock | name),\n" +
					"limit (целое). Неизвестные поля оставляй пустыми. Без пояснений.",
			},
			{Role: "user", Content: "{{.Query}}"},
		},
	}
}

// Extractor извлекает предпочтения покупателя через LLM.
//
// Извлечение никогда не ломает пайплайн: любая ошибка (LLM, шаблон,
// парсинг JSON) приводит к DefaultPreferences.
type Extractor struct {
	provider llm.Provider
	prompt   *prompt.PromptFile
}

// NewExtractor создаёт Extractor.
//
// pf == nil — используется встроенный промпт.
func NewExtractor(provider llm.Provider, pf *prompt.PromptFile) *Extractor {
	if pf == nil {
		pf = defaultExtractPrompt()
	}
	return &Extractor{
		provider: provider,
		prompt:   pf,
	}
}

// Extract извлекает предпочтения из свободного текста запроса.
func (e *Extractor) Extract(ctx context.Context, query string) Preferences {
	rendered, err := e.prompt.RenderMessages(map[string]string{"Query": query})
	if err != nil {
		utils.Warn("workflow: extract prompt render failed, using defaults", "error", err)
		return DefaultPreferences()
	}

	messages := toLLMMessages(rendered)
	resp, err := e.provider.Generate(ctx, messages, promptOptions(e.prompt.Config)...)
	if err != nil {
		utils.Warn("workflow: preference extraction failed, using defaults", "error", err)
		return DefaultPreferences()
	}

	prefs, err := parsePreferences(resp.Content)
	if err != nil {
		utils.Warn("workflow: preference parsing failed, using defaults", "error", err, "raw", resp.Content)
		return DefaultPreferences()
	}

	return prefs
}

// toLLMMessages конвертирует сообщения промпта в формат llm.
func toLLMMessages(msgs []prompt.Message) []llm.Message {
	result := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		result[i] = llm.Message{
			Role:    llm.Role(m.Role),
			Content: m.Content,
		}
	}
	return result
}

// promptOptions строит опции генерации из конфигурации промпта.
func promptOptions(cfg prompt.PromptConfig) []any {
	opts := make([]any, 0, 4)
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Format != "" {
		opts = append(opts, llm.WithFormat(cfg.Format))
	}
	return opts
}
