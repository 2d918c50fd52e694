// Package server — HTTP слой витрины на Fiber.
//
// Поверх одного каталога работают три поверхности: storefront
// (товары и категории), ассистент (потоковый чат) и служебные
// эндпоинты рекомендаций и оценки ответов.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilkoid/vitrina-ai/pkg/agent"
	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/imagestore"
	"github.com/ilkoid/vitrina-ai/pkg/scoring"
	"github.com/ilkoid/vitrina-ai/pkg/state"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
	"github.com/ilkoid/vitrina-ai/pkg/workflow"
)

// Server агрегирует зависимости HTTP слоя.
type Server struct {
	repo        catalog.Repository
	assistant   *agent.Assistant
	recommender *workflow.Recommender
	scorer      *scoring.Composite
	sessions    state.Store
	images      imagestore.URLSigner // nil когда изображения выключены
}

// Option — функциональная опция Server.
type Option func(*Server)

// WithImages подключает presigned ссылки на изображения товаров.
func WithImages(signer imagestore.URLSigner) Option {
	return func(s *Server) {
		s.images = signer
	}
}

// New создаёт Server.
func New(
	repo catalog.Repository,
	assistant *agent.Assistant,
	recommender *workflow.Recommender,
	scorer *scoring.Composite,
	sessions state.Store,
	opts ...Option,
) *Server {
	s := &Server{
		repo:        repo,
		assistant:   assistant,
		recommender: recommender,
		scorer:      scorer,
		sessions:    sessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// App строит Fiber приложение с зарегистрированными маршрутами.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "vitrina-ai",
		ErrorHandler: errorHandler,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/api/products", s.listProducts)
	app.Get("/api/products/:id", s.getProduct)
	app.Get("/api/categories", s.listCategories)

	app.Post("/api/chat", s.chat)
	app.Post("/api/sessions", s.createSession)
	app.Post("/api/recommend", s.recommend)
	app.Post("/api/score", s.score)

	return app
}

// errorHandler — единая точка обработки ошибок: любая необработанная
// ошибка превращается в JSON с кодом 500, fiber.Error сохраняет свой код.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		utils.Error("http: request failed", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
