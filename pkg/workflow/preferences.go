// Package workflow реализует фиксированный пайплайн рекомендации:
// извлечение предпочтений -> фильтрация каталога -> генерация текста.
//
// Шаги оркестрируются через pkg/chain и используют те же фильтры
// каталога, что и инструменты ассистента.
package workflow

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

const (
	// defaultLimit — сколько товаров попадает в рекомендацию по умолчанию.
	defaultLimit = 3

	// maxLimit — верхняя граница limit из извлечённых предпочтений.
	maxLimit = 10
)

// Preferences — предпочтения покупателя, извлечённые из свободного текста.
//
// Цены в рублях: так их возвращает модель, конвертация в копейки
// происходит при построении фильтра каталога.
type Preferences struct {
	Keyword  string   `json:"keyword"`
	Category string   `json:"category"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	SortBy   string   `json:"sort_by"`
	Limit    int      `json:"limit"`
}

// DefaultPreferences — предпочтения по умолчанию.
//
// Используются когда извлечение не удалось: пустой фильтр,
// сортировка по возрастанию цены, три товара.
func DefaultPreferences() Preferences {
	return Preferences{
		SortBy: string(catalog.SortPriceAsc),
		Limit:  defaultLimit,
	}
}

// parsePreferences разбирает сырой ответ модели в Preferences.
//
// Ответ очищается от markdown-обёртки, JSON извлекается по балансу
// скобок. Любая ошибка возвращается вызывающему — решение о fallback
// принимает Extractor.
func parsePreferences(raw string) (Preferences, error) {
	cleaned := utils.ExtractJSON(utils.CleanJsonBlock(raw))
	if cleaned == "" {
		return Preferences{}, fmt.Errorf("no JSON object in response")
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(cleaned), &prefs); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}

	return sanitizePreferences(prefs), nil
}

// sanitizePreferences приводит извлечённые значения к допустимым.
func sanitizePreferences(prefs Preferences) Preferences {
	if _, err := catalog.ParseSortKey(prefs.SortBy); err != nil {
		prefs.SortBy = string(catalog.SortPriceAsc)
	}
	if prefs.SortBy == "" {
		prefs.SortBy = string(catalog.SortPriceAsc)
	}
	if prefs.Limit <= 0 {
		prefs.Limit = defaultLimit
	}
	if prefs.Limit > maxLimit {
		prefs.Limit = maxLimit
	}
	return prefs
}

// Filter строит фильтр каталога из предпочтений.
func (p Preferences) Filter() catalog.Filter {
	return catalog.Filter{
		Keyword:  p.Keyword,
		Category: p.Category,
		MinPrice: rublesToKopecks(p.MinPrice),
		MaxPrice: rublesToKopecks(p.MaxPrice),
	}
}

// SortKey возвращает ключ сортировки каталога.
//
// Preferences после sanitize всегда содержат валидный ключ.
func (p Preferences) SortKey() catalog.SortKey {
	key, err := catalog.ParseSortKey(p.SortBy)
	if err != nil {
		return catalog.SortPriceAsc
	}
	return key
}

// Округление, не усечение: float64 представление 0.29*100 — это
// 28.999..., усечение сдвинуло бы инклюзивную границу цены.
func rublesToKopecks(rubles *float64) *int {
	if rubles == nil {
		return nil
	}
	kopecks := int(math.Round(*rubles * 100))
	return &kopecks
}
