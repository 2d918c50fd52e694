// Package catalog — каталог товаров витрины.
//
// Товары иммутабельны после загрузки: репозитории отдают копии,
// вся фильтрация и сортировка работает над снимком данных.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound возвращается при запросе несуществующего товара.
var ErrNotFound = errors.New("product not found")

// Product — запись каталога.
//
// Price хранится в минимальных единицах валюты (копейках),
// форматирование в рубли происходит только на границах системы.
type Product struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Price       int    `yaml:"price" json:"price"`
	Category    string `yaml:"category" json:"category"`
	Stock       int    `yaml:"stock" json:"stock"`

	// ImageKey — ключ изображения в S3 хранилище (опционально).
	ImageKey string `yaml:"image_key,omitempty" json:"image_key,omitempty"`
}

// Validate проверяет инварианты записи: цена и остаток неотрицательны,
// идентификатор и название заполнены.
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product id cannot be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("product '%s': name cannot be empty", p.ID)
	}
	if p.Price < 0 {
		return fmt.Errorf("product '%s': price must be >= 0, got %d", p.ID, p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product '%s': stock must be >= 0, got %d", p.ID, p.Stock)
	}
	return nil
}

// IsAvailable проверяет достаточно ли остатка для запрошенного количества.
func (p Product) IsAvailable(quantity int) bool {
	return p.Stock >= quantity
}
