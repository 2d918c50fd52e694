// Фильтрация и сортировка каталога.
//
// Три независимых предиката (ключевое слово, категория, границы цены)
// применяются последовательно, затем результат сортируется по одному
// из четырёх фиксированных ключей.
package catalog

import (
	"fmt"
	"sort"

	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// Filter — параметры фильтрации каталога.
//
// Пустое/nil значение отключает соответствующий предикат.
type Filter struct {
	// Keyword — подстрока для поиска по названию и описанию (без учёта регистра).
	Keyword string

	// Category — подстрока для поиска по категории (без учёта регистра).
	Category string

	// MinPrice, MaxPrice — границы цены включительно (в копейках).
	MinPrice *int
	MaxPrice *int
}

// Matches проверяет товар против всех предикатов фильтра.
func (f Filter) Matches(p Product) bool {
	if f.Keyword != "" {
		if !utils.ContainsFold(p.Name, f.Keyword) && !utils.ContainsFold(p.Description, f.Keyword) {
			return false
		}
	}

	if f.Category != "" && !utils.ContainsFold(p.Category, f.Category) {
		return false
	}

	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}

	return true
}

// SortKey — ключ сортировки результата.
type SortKey string

// Четыре фиксированных ключа сортировки.
const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortStock     SortKey = "stock"
	SortName      SortKey = "name"
)

// ParseSortKey валидирует строковое значение ключа сортировки.
//
// Пустая строка трактуется как SortName (стабильный дефолт для витрины).
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortPriceAsc, SortPriceDesc, SortStock, SortName:
		return SortKey(s), nil
	case "":
		return SortName, nil
	default:
		return "", fmt.Errorf("unknown sort key: %q", s)
	}
}

// Apply фильтрует и сортирует снимок каталога.
//
// Исходный слайс не модифицируется. limit <= 0 означает "без лимита".
func Apply(products []Product, f Filter, key SortKey, limit int) []Product {
	result := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			result = append(result, p)
		}
	}

	sortProducts(result, key)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// sortProducts сортирует результат по ключу.
//
// Сортировка стабильная: товары с равным ключом сохраняют порядок каталога.
func sortProducts(products []Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case SortStock:
		// Больший остаток первым — так ассистент предлагает то, что есть на складе
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Stock > products[j].Stock
		})
	case SortName:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Name < products[j].Name
		})
	}
}
