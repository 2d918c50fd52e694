// Инструменты карточки товара: детали и проверка остатка.

package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
)

// GetProductDetailsTool — инструмент получения карточки товара по ID.
type GetProductDetailsTool struct {
	repo catalog.Repository
}

// NewGetProductDetailsTool создаёт инструмент карточки товара.
func NewGetProductDetailsTool(repo catalog.Repository) *GetProductDetailsTool {
	return &GetProductDetailsTool{repo: repo}
}

// Definition возвращает определение инструмента для function calling.
func (t *GetProductDetailsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: "get_product_details",
		Description: "Возвращает полную карточку товара по его идентификатору. " +
			"Используй после search_products, когда пользователь спрашивает про конкретный товар.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"product_id": map[string]interface{}{
					"type":        "string",
					"description": "Идентификатор товара (например, p-003)",
				},
			},
			"required": []string{"product_id"},
		},
	}
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
//
// Несуществующий ID — не ошибка выполнения: LLM получает JSON с
// found=false и может переформулировать ответ пользователю.
func (t *GetProductDetailsTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		ProductID string `json:"product_id"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments json: %w", err)
	}

	if args.ProductID == "" {
		return "", fmt.Errorf("product_id cannot be empty")
	}

	product, err := t.repo.GetByID(ctx, args.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound := map[string]interface{}{
				"found":      false,
				"product_id": args.ProductID,
				"message":    "Товар с таким идентификатором не найден",
			}
			data, _ := json.Marshal(notFound)
			return string(data), nil
		}
		return "", fmt.Errorf("failed to get product: %w", err)
	}

	payload := productPayload(product)
	payload["found"] = true

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CheckStockTool — инструмент проверки остатка товара.
type CheckStockTool struct {
	repo catalog.Repository
}

// NewCheckStockTool создаёт инструмент проверки остатка.
func NewCheckStockTool(repo catalog.Repository) *CheckStockTool {
	return &CheckStockTool{repo: repo}
}

// Definition возвращает определение инструмента для function calling.
func (t *CheckStockTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: "check_stock",
		Description: "Проверяет, достаточно ли товара на складе для запрошенного количества. " +
			"Возвращает is_available и фактический остаток.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"product_id": map[string]interface{}{
					"type":        "string",
					"description": "Идентификатор товара",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Запрошенное количество (по умолчанию 1)",
					"minimum":     1,
				},
			},
			"required": []string{"product_id"},
		},
	}
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *CheckStockTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments json: %w", err)
	}

	if args.ProductID == "" {
		return "", fmt.Errorf("product_id cannot be empty")
	}

	quantity := args.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := t.repo.GetByID(ctx, args.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound := map[string]interface{}{
				"found":      false,
				"product_id": args.ProductID,
				"message":    "Товар с таким идентификатором не найден",
			}
			data, _ := json.Marshal(notFound)
			return string(data), nil
		}
		return "", fmt.Errorf("failed to get product: %w", err)
	}

	result := map[string]interface{}{
		"found":        true,
		"product_id":   product.ID,
		"name":         product.Name,
		"stock":        product.Stock,
		"requested":    quantity,
		"is_available": product.IsAvailable(quantity),
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
