// Package tools задаёт контракт инструментов ассистента.
//
// Контракт "Raw In, String Out": инструмент получает от модели сырой
// JSON аргументов и возвращает строку (обычно тоже JSON). Всё, что
// модель должна увидеть, идёт в строке результата, включая бизнес-ошибки
// вида "товар не найден".
package tools

import "context"

// JSONSchema — схема параметров инструмента в формате, который
// понимает Function Calling API. Именованный тип вместо голой map,
// чтобы определения читались.
type JSONSchema map[string]any

// ToolDefinition — то, что уходит модели при регистрации инструмента.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

type Tool interface {
	// Definition описывает инструмент для модели.
	Definition() ToolDefinition

	// Execute выполняет инструмент с сырыми JSON аргументами от модели.
	Execute(ctx context.Context, argsJSON string) (string, error)
}
