// Package shop предоставляет инструменты ассистента для работы с каталогом.
//
// Все инструменты следуют контракту "Raw In, String Out": получают сырой
// JSON с аргументами от LLM и возвращают JSON строку с результатом.
package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
)

// defaultSearchLimit — сколько товаров возвращать если LLM не указала limit.
const defaultSearchLimit = 5

// maxSearchLimit — верхняя граница limit.
const maxSearchLimit = 20

// SearchProductsTool — инструмент поиска по каталогу.
//
// Поддерживает три независимых предиката (ключевое слово, категория,
// границы цены) и четыре ключа сортировки.
type SearchProductsTool struct {
	repo catalog.Repository
}

// NewSearchProductsTool создаёт инструмент поиска товаров.
func NewSearchProductsTool(repo catalog.Repository) *SearchProductsTool {
	return &SearchProductsTool{repo: repo}
}

// Definition возвращает определение инструмента для function calling.
func (t *SearchProductsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: "search_products",
		Description: "Ищет товары в каталоге магазина по ключевому слову, категории и диапазону цены. " +
			"Цены задаются в рублях. Возвращает список подходящих товаров с ценами и остатками.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"keyword": map[string]interface{}{
					"type":        "string",
					"description": "Ключевое слово для поиска по названию и описанию товара",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Категория товара (например: электроника, продукты, дом и уют)",
				},
				"min_price": map[string]interface{}{
					"type":        "number",
					"description": "Минимальная цена в рублях",
					"minimum":     0,
				},
				"max_price": map[string]interface{}{
					"type":        "number",
					"description": "Максимальная цена в рублях",
					"minimum":     0,
				},
				"sort_by": map[string]interface{}{
					"type":        "string",
					"description": "Сортировка результата",
					"enum":        []string{"price_asc", "price_desc", "stock", "name"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Количество товаров для возврата (максимум %d, по умолчанию %d)", maxSearchLimit, defaultSearchLimit),
					"minimum":     1,
					"maximum":     maxSearchLimit,
				},
			},
			"required": []string{}, // Все параметры опциональны
		},
	}
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *SearchProductsTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Keyword  string   `json:"keyword"`
		Category string   `json:"category"`
		MinPrice *float64 `json:"min_price"`
		MaxPrice *float64 `json:"max_price"`
		SortBy   string   `json:"sort_by"`
		Limit    int      `json:"limit"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments json: %w", err)
	}

	// Дефолтные значения
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	sortKey, err := catalog.ParseSortKey(args.SortBy)
	if err != nil {
		return "", err
	}

	// LLM оперирует рублями, каталог — копейками
	filter := catalog.Filter{
		Keyword:  args.Keyword,
		Category: args.Category,
		MinPrice: rublesToKopecks(args.MinPrice),
		MaxPrice: rublesToKopecks(args.MaxPrice),
	}

	products, err := t.repo.List(ctx, filter, sortKey, limit)
	if err != nil {
		return "", fmt.Errorf("failed to search products: %w", err)
	}

	// Формируем ответ для LLM
	items := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		items = append(items, productPayload(p))
	}

	result := map[string]interface{}{
		"count":    len(items),
		"products": items,
	}
	if len(items) == 0 {
		result["message"] = "По заданным условиям товары не найдены. Попробуйте смягчить фильтры."
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// rublesToKopecks конвертирует опциональную цену в рублях в копейки.
// Округление, не усечение: 0.29*100 во float64 это 28.999...,
// и int() выкинул бы товар, лежащий ровно на границе цены.
func rublesToKopecks(rubles *float64) *int {
	if rubles == nil {
		return nil
	}
	kopecks := int(math.Round(*rubles * 100))
	return &kopecks
}

// productPayload формирует JSON-представление товара для LLM.
func productPayload(p catalog.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price_rub":   formatPrice(p.Price),
		"category":    p.Category,
		"stock":       p.Stock,
	}
}

// formatPrice форматирует копейки в рубли для LLM.
func formatPrice(kopecks int) string {
	return fmt.Sprintf("%d.%02d", kopecks/100, kopecks%100)
}
