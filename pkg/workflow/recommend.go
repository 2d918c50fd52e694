package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/chain"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/prompt"
)

// Ключи значений, передаваемых между шагами цепочки.
const (
	keyPreferences = "preferences"
	keyProducts    = "products"
)

// noMatchMessage возвращается без обращения к LLM когда фильтр пуст.
const noMatchMessage = "К сожалению, по вашему запросу ничего не нашлось. " +
	"Попробуйте изменить условия: другую категорию или диапазон цен."

// defaultRecommendPrompt — встроенный промпт генерации рекомендации.
func defaultRecommendPrompt() *prompt.PromptFile {
	return &prompt.PromptFile{
		Config: prompt.PromptConfig{
			Temperature: 0.7,
		},
		Messages: []prompt.Message{
			{
				Role: "system",
				Content: "Ты ассистент интернет-магазина. По списку подходящих товаров\n" +
					"составь короткую дружелюбную рекомендацию на русском языке.\n" +
					"Обязательно упоминай цену и наличие. Не выдумывай товары,\n" +
					"которых нет в списке.",
			},
			{
				Role: "user",
				Content: "Запрос покупателя: {{.Query}}\n\n" +
					"Подходящие товары:\n{{.Products}}",
			},
		},
	}
}

// RecommendResult — результат пайплайна рекомендации.
type RecommendResult struct {
	// Text — сгенерированный текст рекомендации.
	Text string

	// Preferences — извлечённые (или дефолтные) предпочтения.
	Preferences Preferences

	// Products — товары, попавшие в рекомендацию.
	Products []catalog.Product
}

// Recommender — пайплайн рекомендации из трёх шагов.
type Recommender struct {
	provider  llm.Provider
	repo      catalog.Repository
	extractor *Extractor
	recPrompt *prompt.PromptFile
}

// RecommenderOption — функциональная опция Recommender.
type RecommenderOption func(*Recommender)

// WithExtractPrompt задаёт YAML промпт извлечения предпочтений.
func WithExtractPrompt(pf *prompt.PromptFile) RecommenderOption {
	return func(r *Recommender) {
		if pf != nil {
			r.extractor = NewExtractor(r.provider, pf)
		}
	}
}

// WithRecommendPrompt задаёт YAML промпт генерации рекомендации.
func WithRecommendPrompt(pf *prompt.PromptFile) RecommenderOption {
	return func(r *Recommender) {
		if pf != nil {
			r.recPrompt = pf
		}
	}
}

// NewRecommender создаёт пайплайн рекомендации.
func NewRecommender(provider llm.Provider, repo catalog.Repository, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		provider:  provider,
		repo:      repo,
		extractor: NewExtractor(provider, nil),
		recPrompt: defaultRecommendPrompt(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend выполняет пайплайн для запроса покупателя.
func (r *Recommender) Recommend(ctx context.Context, query string) (RecommendResult, error) {
	chainCtx := chain.NewChainContext(query)

	exec := chain.NewSequentialExecutor("recommendation",
		chain.NewStepFunc("extract_preferences", r.extractStep),
		chain.NewStepFunc("filter_catalog", r.filterStep),
		chain.NewStepFunc("generate_recommendation", r.generateStep),
	)

	out, err := exec.Execute(ctx, chainCtx)
	if err != nil {
		return RecommendResult{}, err
	}

	result := RecommendResult{Text: out.Result}
	if v, ok := chainCtx.Get(keyPreferences); ok {
		result.Preferences = v.(Preferences)
	}
	if v, ok := chainCtx.Get(keyProducts); ok {
		result.Products = v.([]catalog.Product)
	}
	return result, nil
}

// extractStep извлекает предпочтения и кладёт их в контекст цепочки.
//
// Шаг не может завершиться ошибкой: Extract всегда возвращает
// валидные предпочтения (в худшем случае дефолтные).
func (r *Recommender) extractStep(ctx context.Context, chainCtx *chain.ChainContext) (chain.NextAction, error) {
	prefs := r.extractor.Extract(ctx, chainCtx.UserQuery())
	chainCtx.Set(keyPreferences, prefs)
	return chain.ActionContinue, nil
}

// filterStep выбирает товары каталога по предпочтениям.
//
// Пустая выборка завершает цепочку готовым текстом без обращения к LLM.
func (r *Recommender) filterStep(ctx context.Context, chainCtx *chain.ChainContext) (chain.NextAction, error) {
	v, ok := chainCtx.Get(keyPreferences)
	if !ok {
		return chain.ActionError, fmt.Errorf("preferences missing from chain context")
	}
	prefs := v.(Preferences)

	products, err := r.repo.List(ctx, prefs.Filter(), prefs.SortKey(), prefs.Limit)
	if err != nil {
		return chain.ActionError, fmt.Errorf("catalog list: %w", err)
	}

	chainCtx.Set(keyProducts, products)

	if len(products) == 0 {
		chainCtx.SetResult(noMatchMessage)
		return chain.ActionBreak, nil
	}
	return chain.ActionContinue, nil
}

// generateStep генерирует текст рекомендации по выбранным товарам.
func (r *Recommender) generateStep(ctx context.Context, chainCtx *chain.ChainContext) (chain.NextAction, error) {
	v, _ := chainCtx.Get(keyProducts)
	products := v.([]catalog.Product)

	rendered, err := r.recPrompt.RenderMessages(map[string]string{
		"Query":    chainCtx.UserQuery(),
		"Products": formatProductList(products),
	})
	if err != nil {
		return chain.ActionError, fmt.Errorf("render recommendation prompt: %w", err)
	}

	resp, err := r.provider.Generate(ctx, toLLMMessages(rendered), promptOptions(r.recPrompt.Config)...)
	if err != nil {
		return chain.ActionError, fmt.Errorf("generate recommendation: %w", err)
	}

	chainCtx.SetResult(strings.TrimSpace(resp.Content))
	return chain.ActionContinue, nil
}

// formatProductList форматирует товары для подстановки в промпт.
func formatProductList(products []catalog.Product) string {
	var sb strings.Builder
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s (%s) — %d.%02d руб., в наличии: %d шт.\n",
			p.Name, p.Category, p.Price/100, p.Price%100, p.Stock)
	}
	return sb.String()
}
