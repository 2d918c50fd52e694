package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ilkoid/vitrina-ai/pkg/scoring"
)

type recommendRequest struct {
	Query string `json:"query"`
}

// recommend — POST /api/recommend: пайплайн рекомендации.
func (s *Server) recommend(c *fiber.Ctx) error {
	var req recommendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query is required")
	}

	result, err := s.recommender.Recommend(c.Context(), req.Query)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	products := make([]fiber.Map, 0, len(result.Products))
	for _, p := range result.Products {
		products = append(products, s.productPayload(c, p))
	}

	return c.JSON(fiber.Map{
		"text":        result.Text,
		"preferences": result.Preferences,
		"products":    products,
	})
}

type scoreRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// score — POST /api/score: оценка ответа ассистента (debug/eval).
func (s *Server) score(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" || req.Response == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query and response are required")
	}

	eval, err := s.scorer.Evaluate(c.Context(), scoring.Input{
		Query:    req.Query,
		Response: req.Response,
	})
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	return c.JSON(eval)
}
