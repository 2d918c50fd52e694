/*
Vitrina Server - HTTP API витрины с AI ассистентом.

Поднимает storefront эндпоинты, потоковый чат ассистента,
пайплайн рекомендаций и оценку ответов на одном Fiber приложении.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/ilkoid/vitrina-ai/internal/server"
	"github.com/ilkoid/vitrina-ai/pkg/agent"
	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/imagestore"
	"github.com/ilkoid/vitrina-ai/pkg/models"
	"github.com/ilkoid/vitrina-ai/pkg/prompt"
	"github.com/ilkoid/vitrina-ai/pkg/scoring"
	"github.com/ilkoid/vitrina-ai/pkg/state"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
	"github.com/ilkoid/vitrina-ai/pkg/tools/shop"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
	"github.com/ilkoid/vitrina-ai/pkg/workflow"
)

const fallbackSystemPrompt = "Ты ассистент интернет-магазина. Помогаешь покупателям " +
	"находить товары через инструменты каталога. Отвечай на русском языке, кратко и по делу. " +
	"Не выдумывай товары, которых нет в каталоге."

func main() {
	configPath := flag.String("config", "config.yaml", "путь к config.yaml")
	flag.Parse()

	// .env опционален: боевой конфиг берёт ключи из окружения
	_ = godotenv.Load()

	if err := utils.InitLogger(); err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer utils.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	ctx, cleanup := utils.SetupGracefulShutdownWithContext()
	defer cleanup()

	// Каталог
	repo, closeRepo, err := buildCatalog(ctx, cfg.Catalog)
	if err != nil {
		log.Fatalf("Ошибка инициализации каталога: %v", err)
	}
	defer closeRepo()

	// Инструменты ассистента
	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		shop.NewSearchProductsTool(repo),
		shop.NewGetProductDetailsTool(repo),
		shop.NewCheckStockTool(repo),
	} {
		if err := registry.Register(tool); err != nil {
			log.Fatalf("Ошибка регистрации инструмента: %v", err)
		}
	}

	// Реестр LLM моделей
	modelRegistry, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		log.Fatalf("Ошибка инициализации моделей: %v", err)
	}
	utils.Info("models registered", "names", modelRegistry.ListNames())

	chatProvider, _, chatName, err := modelRegistry.GetWithFallback(cfg.Models.DefaultChat, cfg.Models.DefaultChat)
	if err != nil {
		log.Fatalf("Модель чата недоступна: %v", err)
	}
	extractProvider, _, _, err := modelRegistry.GetWithFallback(cfg.Models.DefaultExtract, cfg.Models.DefaultChat)
	if err != nil {
		log.Fatalf("Модель извлечения недоступна: %v", err)
	}
	scorerProvider, _, _, err := modelRegistry.GetWithFallback(cfg.Models.DefaultScorer, cfg.Models.DefaultChat)
	if err != nil {
		log.Fatalf("Модель скоринга недоступна: %v", err)
	}

	// Промпты
	systemPrompt := fallbackSystemPrompt
	var extractPrompt, recommendPrompt *prompt.PromptFile
	if cfg.App.PromptsDir != "" {
		if pf, err := prompt.LoadFromDir(cfg.App.PromptsDir, "assistant_system"); err == nil {
			systemPrompt = pf.SystemText()
		} else {
			utils.Warn("assistant_system prompt not loaded, using fallback", "error", err)
		}
		extractPrompt, _ = prompt.LoadFromDir(cfg.App.PromptsDir, "extract_preferences")
		recommendPrompt, _ = prompt.LoadFromDir(cfg.App.PromptsDir, "recommendation")
	}

	assistant := agent.New(chatProvider, registry, systemPrompt,
		agent.WithMaxIterations(cfg.App.MaxIterations),
	)
	utils.Info("assistant ready", "model", chatName)

	recommender := workflow.NewRecommender(extractProvider, repo,
		workflow.WithExtractPrompt(extractPrompt),
		workflow.WithRecommendPrompt(recommendPrompt),
	)

	scorer := scoring.NewDefaultComposite(scorerProvider, cfg.Scoring)

	// Сессии чата
	sessions, err := buildSessions(cfg.Sessions)
	if err != nil {
		log.Fatalf("Ошибка инициализации сессий: %v", err)
	}
	defer sessions.Close()

	// Изображения товаров (опционально)
	var opts []server.Option
	if cfg.Images.Enabled {
		signer, err := imagestore.New(cfg.Images)
		if err != nil {
			log.Fatalf("Ошибка инициализации хранилища изображений: %v", err)
		}
		opts = append(opts, server.WithImages(signer))
	}

	srv := server.New(repo, assistant, recommender, scorer, sessions, opts...)
	app := srv.App()

	go func() {
		<-ctx.Done()
		utils.Info("shutting down http server")
		if err := app.Shutdown(); err != nil {
			utils.Error("http shutdown failed", "error", err)
		}
	}()

	utils.Info("starting http server", "addr", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Fatalf("Ошибка HTTP сервера: %v", err)
	}
}

// buildCatalog создаёт репозиторий каталога по конфигурации.
func buildCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Repository, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := catalog.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		// Посев при первом запуске: upsert идемпотентен
		if cfg.SeedPath != "" {
			products, err := catalog.LoadSeed(cfg.SeedPath)
			if err != nil {
				repo.Close()
				return nil, nil, err
			}
			if err := repo.Seed(ctx, products); err != nil {
				repo.Close()
				return nil, nil, err
			}
		}
		return repo, func() { repo.Close() }, nil

	case "", "memory":
		if cfg.SeedPath != "" {
			repo, err := catalog.NewMemoryRepositoryFromFile(cfg.SeedPath)
			if err != nil {
				return nil, nil, err
			}
			return repo, func() {}, nil
		}
		repo, err := catalog.NewMemoryRepository(catalog.DemoProducts())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog driver: %s", cfg.Driver)
	}
}

// buildSessions создаёт хранилище сессий по конфигурации.
func buildSessions(cfg config.SessionConfig) (state.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return state.NewSQLiteStore(cfg.SQLitePath, cfg.HistoryLimit)
	case "", "memory":
		return state.NewMemoryStore(cfg.HistoryLimit), nil
	default:
		return nil, fmt.Errorf("unknown session driver: %s", cfg.Driver)
	}
}
