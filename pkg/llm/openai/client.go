// Package openai — адаптер для OpenAI-совместимых чат-API
// (OpenAI, DeepSeek, OpenRouter и другие с тем же протоколом).
//
// Наружу торчат только интерфейсы llm.Provider и llm.StreamingProvider;
// типы SDK за пределы пакета не выходят.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// Client — llm.Provider и llm.StreamingProvider поверх go-openai,
// с Function Calling и опциональным rate limit на исходящие запросы.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewClient собирает клиента из определения модели в config.yaml.
func NewClient(modelDef config.ModelDef) *Client {
	// BaseURL переключает адаптер на сторонние совместимые API
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	client := openai.NewClientWithConfig(cfg)

	// Rate limiter опционален: rate_limit задаётся в запросах в минуту
	var limiter *rate.Limiter
	if modelDef.RateLimit > 0 {
		burst := modelDef.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(modelDef.RateLimit)/60.0), burst)
	}

	return &Client{
		api:     client,
		model:   modelDef.ModelName,
		limiter: limiter,
	}
}

// Generate отправляет запрос и возвращает ответ модели одним куском.
//
// В opts принимаются []tools.ToolDefinition (Function Calling)
// и llm.GenerateOption (переопределение model/temperature/...).
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	startTime := time.Now()

	req, err := c.buildRequest(messages, opts)
	if err != nil {
		return llm.Message{}, err
	}

	utils.Debug("LLM request started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(req.Tools))

	if err := c.waitLimiter(ctx); err != nil {
		return llm.Message{}, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// GenerateStream выполняет запрос с потоковой передачей ответа.
//
// Callback вызывается для каждой порции контента (ChunkContent) и один раз
// в конце (ChunkDone). Если модель решила вызвать инструменты, дельты
// аргументов аккумулируются и возвращаются в финальном Message целиком.
func (c *Client) GenerateStream(ctx context.Context, messages []llm.Message, callback func(llm.StreamChunk), opts ...any) (llm.Message, error) {
	startTime := time.Now()

	req, err := c.buildRequest(messages, opts)
	if err != nil {
		return llm.Message{}, err
	}

	if err := c.waitLimiter(ctx); err != nil {
		return llm.Message{}, err
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		utils.Error("LLM stream request failed", "error", err, "model", req.Model)
		return llm.Message{}, fmt.Errorf("openai stream error: %w", err)
	}
	defer stream.Close()

	var (
		content   string
		toolCalls []llm.ToolCall
		role      = llm.RoleAssistant
	)

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if callback != nil {
				callback(llm.StreamChunk{Type: llm.ChunkError, Error: err})
			}
			return llm.Message{}, fmt.Errorf("stream recv error: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		// Аккумулируем tool calls: SDK присылает аргументы дельтами,
		// индекс указывает к какому вызову относится дельта.
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(toolCalls) <= idx {
				toolCalls = append(toolCalls, llm.ToolCall{})
			}
			if tc.ID != "" {
				toolCalls[idx].ID = tc.ID
			}
			if tc.Function.Name != "" {
				toolCalls[idx].Name = tc.Function.Name
			}
			toolCalls[idx].Args += tc.Function.Arguments
		}

		if delta.Content != "" {
			content += delta.Content
			if callback != nil {
				callback(llm.StreamChunk{
					Type:    llm.ChunkContent,
					Content: content,
					Delta:   delta.Content,
				})
			}
		}
	}

	if callback != nil {
		callback(llm.StreamChunk{Type: llm.ChunkDone, Content: content, Done: true})
	}

	result := llm.Message{
		Role:      role,
		Content:   content,
		ToolCalls: toolCalls,
	}

	utils.Info("LLM stream completed",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// buildRequest собирает ChatCompletionRequest из сообщений и опций.
func (c *Client) buildRequest(messages []llm.Message, opts []any) (openai.ChatCompletionRequest, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: openaiMsgs,
	}

	genOpts := llm.ApplyOptions(opts...)
	if genOpts.Model != "" {
		req.Model = genOpts.Model
	}
	if genOpts.Temperature != 0 {
		req.Temperature = float32(genOpts.Temperature)
	}
	if genOpts.MaxTokens != 0 {
		req.MaxTokens = genOpts.MaxTokens
	}
	if genOpts.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	for _, opt := range opts {
		toolDefs, ok := opt.([]tools.ToolDefinition)
		if !ok {
			continue
		}
		req.Tools = convertToolsToOpenAI(toolDefs)
		// Модель сама решает, когда звать инструменты
		req.ToolChoice = "auto"
	}

	return req, nil
}

// waitLimiter ждёт разрешения от rate limiter, если он настроен.
func (c *Client) waitLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// mapToOpenAI переводит внутреннее сообщение в тип SDK.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:    string(m.Role),
		Content: m.Content,
	}

	// Tool calls в истории (assistant сообщение с вызовами)
	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	// Результат инструмента (tool сообщение)
	if m.ToolCallID != "" {
		msg.ToolCallID = m.ToolCallID
	}

	return msg
}

// mapFromOpenAI конвертирует ответ SDK в наш формат.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	return result
}

// convertToolsToOpenAI упаковывает определения инструментов в формат
// Function Calling. Parameters — уже готовая JSON Schema map,
// SDK принимает её без преобразований.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: "function",
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}
