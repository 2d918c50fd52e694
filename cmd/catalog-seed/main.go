/*
Catalog Seed - наполнение SQLite каталога из YAML файла.

	catalog-seed -config config.yaml
	catalog-seed -db vitrina.db -seed catalog.yaml

Если в конфигурации включено S3 хранилище изображений, после посева
сверяет ключи изображений товаров с содержимым бакета.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/imagestore"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yaml (берёт db и seed из секции catalog)")
	dbPath := flag.String("db", "", "путь к файлу SQLite базы")
	seedPath := flag.String("seed", "", "путь к YAML файлу с товарами")
	flag.Parse()

	db, seed := *dbPath, *seedPath
	var cfg *config.AppConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки конфигурации: %v", err)
		}
		cfg = loaded
		if db == "" {
			db = cfg.Catalog.SQLitePath
		}
		if seed == "" {
			seed = cfg.Catalog.SeedPath
		}
	}
	if db == "" {
		log.Fatal("не задан путь к базе: -db или -config")
	}

	// Без seed файла используются встроенные демо-товары
	var products []catalog.Product
	var err error
	if seed != "" {
		products, err = catalog.LoadSeed(seed)
		if err != nil {
			log.Fatalf("Ошибка чтения seed файла: %v", err)
		}
	} else {
		products = catalog.DemoProducts()
	}

	repo, err := catalog.NewSQLiteRepository(db)
	if err != nil {
		log.Fatalf("Ошибка открытия базы: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.Seed(ctx, products); err != nil {
		log.Fatalf("Ошибка посева каталога: %v", err)
	}

	fmt.Printf("Загружено товаров: %d (база %s)\n", len(products), db)

	if cfg != nil && cfg.Images.Enabled {
		if err := verifyImages(ctx, cfg.Images, products); err != nil {
			log.Fatalf("Ошибка проверки изображений: %v", err)
		}
	}
}

// verifyImages сверяет ключи изображений товаров с бакетом.
// Отсутствующие изображения — предупреждение, не ошибка: товар
// без картинки витрина отдаёт и так.
func verifyImages(ctx context.Context, imagesCfg config.ImagesConfig, products []catalog.Product) error {
	store, err := imagestore.New(imagesCfg)
	if err != nil {
		return err
	}

	keys, err := store.ListKeys(ctx, "")
	if err != nil {
		return err
	}

	missing := missingImageKeys(products, keys)
	if len(missing) == 0 {
		fmt.Printf("Изображения на месте: %d ключей в бакете\n", len(keys))
		return nil
	}
	for _, key := range missing {
		fmt.Printf("ВНИМАНИЕ: изображение %s отсутствует в бакете\n", key)
	}
	return nil
}

// missingImageKeys возвращает ключи изображений товаров,
// которых нет среди существующих объектов бакета.
func missingImageKeys(products []catalog.Product, existing []string) []string {
	present := make(map[string]struct{}, len(existing))
	for _, key := range existing {
		present[key] = struct{}{}
	}

	var missing []string
	for _, p := range products {
		if p.ImageKey == "" {
			continue
		}
		if _, ok := present[p.ImageKey]; !ok {
			missing = append(missing, p.ImageKey)
		}
	}
	return missing
}
