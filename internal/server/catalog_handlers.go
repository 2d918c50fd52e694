package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// listProducts — GET /api/products.
//
// Query параметры: keyword, category, min_price, max_price (рубли),
// sort_by (price_asc | price_desc | stock | name), limit.
func (s *Server) listProducts(c *fiber.Ctx) error {
	filter := catalog.Filter{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
	}

	minPrice, err := parsePriceQuery(c.Query("min_price"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid min_price: %v", err))
	}
	filter.MinPrice = minPrice

	maxPrice, err := parsePriceQuery(c.Query("max_price"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid max_price: %v", err))
	}
	filter.MaxPrice = maxPrice

	sortKey, err := catalog.ParseSortKey(c.Query("sort_by"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	limit := c.QueryInt("limit", 0)

	products, err := s.repo.List(c.Context(), filter, sortKey, limit)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	payload := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		payload = append(payload, s.productPayload(c, p))
	}

	return c.JSON(fiber.Map{
		"count":    len(payload),
		"products": payload,
	})
}

// getProduct — GET /api/products/:id.
func (s *Server) getProduct(c *fiber.Ctx) error {
	product, err := s.repo.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}

	return c.JSON(s.productPayload(c, product))
}

// listCategories — GET /api/categories.
func (s *Server) listCategories(c *fiber.Ctx) error {
	categories, err := s.repo.Categories(c.Context())
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	return c.JSON(fiber.Map{"categories": categories})
}

// productPayload сериализует товар для HTTP ответа.
//
// Цена отдаётся и в копейках (price), и строкой в рублях (price_rub).
// При включённом хранилище изображений добавляется presigned ссылка.
func (s *Server) productPayload(c *fiber.Ctx, p catalog.Product) fiber.Map {
	payload := fiber.Map{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"price_rub":   fmt.Sprintf("%d.%02d", p.Price/100, p.Price%100),
		"category":    p.Category,
		"stock":       p.Stock,
	}

	if s.images != nil && p.ImageKey != "" {
		url, err := s.images.PresignedURL(c.Context(), p.ImageKey)
		if err != nil {
			// Отсутствие картинки не ломает выдачу товара
			utils.Warn("http: presign image failed", "product", p.ID, "error", err)
		} else {
			payload["image_url"] = url
		}
	}

	return payload
}

// parsePriceQuery разбирает цену в рублях из query параметра в копейки.
// Округление вместо усечения: иначе float64 представление вида
// 28.999... исключает товар ровно на границе цены.
func parsePriceQuery(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	rubles, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	kopecks := int(math.Round(rubles * 100))
	return &kopecks, nil
}
