// In-memory репозиторий каталога.
//
// Снимок загружается один раз из YAML файла и больше не меняется,
// поэтому чтение не требует синхронизации.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MemoryRepository — иммутабельный снимок каталога в памяти.
type MemoryRepository struct {
	products []Product
}

// seedFile — структура YAML файла с товарами.
type seedFile struct {
	Products []Product `yaml:"products"`
}

// NewMemoryRepository создаёт репозиторий из готового списка товаров.
//
// Каждый товар валидируется; первая же невалидная запись — ошибка.
func NewMemoryRepository(products []Product) (*MemoryRepository, error) {
	seen := make(map[string]bool, len(products))
	snapshot := make([]Product, len(products))

	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid product at index %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate product id: %s", p.ID)
		}
		seen[p.ID] = true
		snapshot[i] = p
	}

	return &MemoryRepository{products: snapshot}, nil
}

// LoadSeed читает список товаров из YAML файла.
func LoadSeed(path string) ([]Product, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("seed file not found at: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	if len(seed.Products) == 0 {
		return nil, fmt.Errorf("seed file %s contains no products", path)
	}

	return seed.Products, nil
}

// NewMemoryRepositoryFromFile создаёт репозиторий из YAML файла.
func NewMemoryRepositoryFromFile(path string) (*MemoryRepository, error) {
	products, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryRepository(products)
}

// List возвращает отфильтрованный и отсортированный список товаров.
func (r *MemoryRepository) List(ctx context.Context, f Filter, key SortKey, limit int) ([]Product, error) {
	return Apply(r.products, f, key, limit), nil
}

// GetByID возвращает товар по идентификатору или ErrNotFound.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Categories возвращает уникальные категории каталога.
func (r *MemoryRepository) Categories(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, p := range r.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			result = append(result, p.Category)
		}
	}

	sort.Strings(result)
	return result, nil
}

// Проверка реализации интерфейса
var _ Repository = (*MemoryRepository)(nil)
