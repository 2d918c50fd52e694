// Интерфейс репозитория каталога.

package catalog

import "context"

// Repository — контракт доступа к каталогу товаров.
//
// Реализации: MemoryRepository (снимок в памяти) и SQLiteRepository
// (персистентное хранилище). Обе отдают копии данных.
type Repository interface {
	// List возвращает отфильтрованный и отсортированный список товаров.
	// limit <= 0 означает "без лимита".
	List(ctx context.Context, f Filter, key SortKey, limit int) ([]Product, error)

	// GetByID возвращает товар по идентификатору.
	// Для несуществующего ID возвращает ErrNotFound.
	GetByID(ctx context.Context, id string) (Product, error)

	// Categories возвращает уникальные категории каталога (отсортированные).
	Categories(ctx context.Context) ([]string, error)
}
