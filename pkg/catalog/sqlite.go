// SQLite репозиторий каталога.
//
// Хранит товары в одной таблице. Фильтрация по подстроке выполняется
// на стороне Go: SQL LIKE в sqlite нечувствителен к регистру только для
// ASCII, а названия товаров содержат кириллицу.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository — персистентное хранилище каталога.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository открывает (или создаёт) базу по указанному пути.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return r, nil
}

// migrate создаёт схему если её ещё нет.
func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       INTEGER NOT NULL CHECK (price >= 0),
		category    TEXT NOT NULL DEFAULT '',
		stock       INTEGER NOT NULL CHECK (stock >= 0),
		image_key   TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Close закрывает соединение с базой.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Upsert вставляет или обновляет товар.
//
// Запись валидируется перед записью — инварианты каталога (price >= 0,
// stock >= 0) держатся и на уровне Go, и на уровне CHECK constraints.
func (r *SQLiteRepository) Upsert(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, category, stock, image_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			category = excluded.category,
			stock = excluded.stock,
			image_key = excluded.image_key`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.ImageKey)
	if err != nil {
		return fmt.Errorf("upsert product '%s': %w", p.ID, err)
	}
	return nil
}

// Seed загружает список товаров в базу (upsert каждой записи).
func (r *SQLiteRepository) Seed(ctx context.Context, products []Product) error {
	for _, p := range products {
		if err := r.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// loadAll читает снимок всего каталога.
//
// Каталог витрины мал (десятки записей), поэтому предикаты фильтра
// применяются к снимку в Go — ровно тот же код, что и в memory репозитории.
func (r *SQLiteRepository) loadAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, category, stock, image_key FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.ImageKey); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}

	return result, rows.Err()
}

// List возвращает отфильтрованный и отсортированный список товаров.
func (r *SQLiteRepository) List(ctx context.Context, f Filter, key SortKey, limit int) ([]Product, error) {
	products, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(products, f, key, limit), nil
}

// GetByID возвращает товар по идентификатору или ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, category, stock, image_key FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.ImageKey)

	if err == sql.ErrNoRows {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product '%s': %w", id, err)
	}
	return p, nil
}

// Categories возвращает уникальные категории каталога.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(result)
	return result, nil
}

// Проверка реализации интерфейса
var _ Repository = (*SQLiteRepository)(nil)
