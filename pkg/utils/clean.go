// Очистка текстовых ответов LLM.
//
// Модели заворачивают JSON в markdown и дописывают пояснения
// вокруг него; эти функции достают полезную часть.
package utils

import (
	"strings"
)

// CleanJsonBlock срезает markdown-ограждение вокруг JSON ответа:
//
//	```json
//	{"key": "value"}
//	```
//
// превращается в голый {"key": "value"}.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// ExtractJSON находит первый JSON-объект в свободном тексте
// по балансу фигурных скобок. Содержимое не валидируется,
// это работа json.Unmarshal на стороне вызывающего.
// Пустая строка — объект не найден.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Объект внутри массива ([{...) нам не подходит
	if start > 0 && s[start-1] == '[' {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	// Скобка так и не закрылась: отдаём хвост как есть
	return s[start:]
}

// ContainsFold проверяет вхождение подстроки без учёта регистра.
// Через ToLower, а не побайтово: названия и описания товаров —
// кириллица.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
