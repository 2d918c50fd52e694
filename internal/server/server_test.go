package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/vitrina-ai/pkg/agent"
	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/scoring"
	"github.com/ilkoid/vitrina-ai/pkg/state"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
	"github.com/ilkoid/vitrina-ai/pkg/tools/shop"
	"github.com/ilkoid/vitrina-ai/pkg/workflow"
)

// scriptedProvider возвращает заранее заданные ответы по очереди
// и запоминает сообщения каждого вызова.
type scriptedProvider struct {
	responses []string
	calls     [][]llm.Message
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	p.calls = append(p.calls, messages)
	idx := len(p.calls) - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return llm.Message{Role: llm.RoleAssistant, Content: p.responses[idx]}, nil
}

// fakeSigner подписывает ссылки без S3.
type fakeSigner struct{}

func (fakeSigner) PresignedURL(ctx context.Context, key string) (string, error) {
	return "https://img.example.com/" + key, nil
}

type testServer struct {
	app           *fiber.App
	chatProvider  *scriptedProvider
	recProvider   *scriptedProvider
	scoreProvider *scriptedProvider
	sessions      state.Store
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()

	repo, err := catalog.NewMemoryRepository(catalog.DemoProducts())
	require.NoError(t, err)

	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(shop.NewSearchProductsTool(repo)))
	require.NoError(t, registry.Register(shop.NewGetProductDetailsTool(repo)))
	require.NoError(t, registry.Register(shop.NewCheckStockTool(repo)))

	chatProvider := &scriptedProvider{responses: []string{"Здравствуйте! Чем помочь?"}}
	recProvider := &scriptedProvider{responses: []string{
		`{"category":"продукты","sort_by":"price_asc","limit":2}`,
		"Рекомендую чай Сенча и кофе Бразилия Сантос.",
	}}
	scoreProvider := &scriptedProvider{responses: []string{`{"score": 0.9, "explanation": "ок"}`}}

	assistant := agent.New(chatProvider, registry, "Ты ассистент магазина.")
	recommender := workflow.NewRecommender(recProvider, repo)

	scoringCfg := config.ScoringConfig{}
	scorer := scoring.NewDefaultComposite(scoreProvider, scoringCfg.GetDefaults())

	sessions := state.NewMemoryStore(0)

	srv := New(repo, assistant, recommender, scorer, sessions, opts...)
	return &testServer{
		app:           srv.App(),
		chatProvider:  chatProvider,
		recProvider:   recProvider,
		scoreProvider: scoreProvider,
		sessions:      sessions,
	}
}

func decodeJSON(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func TestListProducts(t *testing.T) {
	ts := newTestServer(t)

	t.Run("filter by category", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products?category=электроника", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)

		payload := decodeJSON(t, res.Body)
		assert.Equal(t, float64(2), payload["count"])
	})

	t.Run("price bounds with sort", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET",
			"/api/products?min_price=1000&max_price=3000&sort_by=price_asc", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)

		payload := decodeJSON(t, res.Body)
		products := payload["products"].([]any)
		require.NotEmpty(t, products)
		first := products[0].(map[string]any)
		assert.Equal(t, "p-006", first["id"])
	})

	t.Run("invalid sort key", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products?sort_by=rating", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})

	t.Run("invalid price", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products?min_price=abc", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})
}

func TestParsePriceQueryRoundsKopecks(t *testing.T) {
	// 25.99*100 во float64 — 2598.999...; усечение исключало бы
	// товар, лежащий ровно на инклюзивной границе цены
	kopecks, err := parsePriceQuery("25.99")
	require.NoError(t, err)
	require.NotNil(t, kopecks)
	assert.Equal(t, 2599, *kopecks)

	kopecks, err = parsePriceQuery("0.29")
	require.NoError(t, err)
	require.NotNil(t, kopecks)
	assert.Equal(t, 29, *kopecks)

	empty, err := parsePriceQuery("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestGetProduct(t *testing.T) {
	ts := newTestServer(t)

	t.Run("found", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products/p-003", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)

		payload := decodeJSON(t, res.Body)
		assert.Equal(t, "Наушники беспроводные Volna X2", payload["name"])
		assert.Equal(t, "3499.00", payload["price_rub"])
	})

	t.Run("not found", func(t *testing.T) {
		res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products/p-999", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})
}

func TestGetProductWithImages(t *testing.T) {
	ts := newTestServer(t, WithImages(fakeSigner{}))

	res, err := ts.app.Test(httptest.NewRequest("GET", "/api/products/p-001", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	payload := decodeJSON(t, res.Body)
	assert.Equal(t, "https://img.example.com/products/p-001.jpg", payload["image_url"])
}

func TestListCategories(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.app.Test(httptest.NewRequest("GET", "/api/categories", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	payload := decodeJSON(t, res.Body)
	categories := payload["categories"].([]any)
	assert.Len(t, categories, 4)
}

func TestChatPlainText(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/chat",
		strings.NewReader(`{"message":"привет"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get(fiber.HeaderContentType), "text/plain")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Здравствуйте! Чем помочь?", string(body))
}

func TestChatWithClientHistory(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{
		"messages": [
			{"role": "user", "content": "привет"},
			{"role": "assistant", "content": "здравствуйте"},
			{"role": "user", "content": "найди чайник"}
		]
	}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	io.Copy(io.Discard, res.Body)

	// system + 2 истории + последний user
	require.Len(t, ts.chatProvider.calls, 1)
	assert.Len(t, ts.chatProvider.calls[0], 4)
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t)

	t.Run("empty message", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := ts.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})

	t.Run("last message not from user", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(
			`{"messages":[{"role":"assistant","content":"привет"}]}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := ts.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(
			`{"message":"привет","session_id":"no-such"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := ts.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})
}

func TestChatSessionPersistsHistory(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.app.Test(httptest.NewRequest("POST", "/api/sessions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	session := decodeJSON(t, res.Body)
	sessionID := session["id"].(string)
	require.NotEmpty(t, sessionID)

	chat := func(message string) {
		req := httptest.NewRequest("POST", "/api/chat",
			strings.NewReader(`{"message":"`+message+`","session_id":"`+sessionID+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := ts.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.Equal(t, sessionID, res.Header.Get("X-Session-ID"))
		io.Copy(io.Discard, res.Body)
	}

	chat("привет")
	chat("найди чайник")

	// Второй вызов должен получить историю первого:
	// system + (user+assistant из первого хода) + новый user
	require.Len(t, ts.chatProvider.calls, 2)
	assert.Len(t, ts.chatProvider.calls[0], 2)
	assert.Len(t, ts.chatProvider.calls[1], 4)

	history, err := ts.sessions.History(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestRecommendEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/recommend",
		strings.NewReader(`{"query":"что-нибудь из продуктов"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	payload := decodeJSON(t, res.Body)
	assert.Contains(t, payload["text"], "Сенча")
	products := payload["products"].([]any)
	assert.Len(t, products, 2)
}

func TestScoreEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/score", strings.NewReader(`{
		"query": "сколько стоит чайник?",
		"response": "Чайник стоит 2599 руб., в наличии 12 шт."
	}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	payload := decodeJSON(t, res.Body)
	assert.InDelta(t, 0.9, payload["total"].(float64), 1e-9)
	subScores := payload["sub_scores"].([]any)
	assert.Len(t, subScores, 3)
}
