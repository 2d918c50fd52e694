package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/vitrina-ai/pkg/events"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
)

// scriptedProvider возвращает заранее заданные ответы по очереди.
type scriptedProvider struct {
	responses []llm.Message
	calls     int
	// toolDefsPerCall фиксирует, передавались ли определения инструментов
	toolDefsPerCall []bool
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	hasDefs := false
	for _, opt := range opts {
		if defs, ok := opt.([]tools.ToolDefinition); ok && len(defs) > 0 {
			hasDefs = true
		}
	}
	p.toolDefsPerCall = append(p.toolDefsPerCall, hasDefs)

	if p.calls >= len(p.responses) {
		return llm.Message{Role: llm.RoleAssistant, Content: "fallback"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

// streamingProvider отдаёт ответ порциями через callback.
type streamingProvider struct {
	scriptedProvider
	chunks []string
}

func (p *streamingProvider) GenerateStream(ctx context.Context, messages []llm.Message, callback func(llm.StreamChunk), opts ...any) (llm.Message, error) {
	var accumulated string
	for _, c := range p.chunks {
		accumulated += c
		callback(llm.StreamChunk{Type: llm.ChunkContent, Delta: c, Content: accumulated})
	}
	callback(llm.StreamChunk{Type: llm.ChunkDone, Content: accumulated, Done: true})
	return llm.Message{Role: llm.RoleAssistant, Content: accumulated}, nil
}

// echoTool возвращает полученные аргументы as-is.
type echoTool struct {
	name     string
	lastArgs string
}

func (t *echoTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        t.name,
		Description: "echo tool",
		Parameters: tools.JSONSchema{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func (t *echoTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	t.lastArgs = argsJSON
	return "echo: " + argsJSON, nil
}

// recordingEmitter копит события в памяти для проверки порядка публикации.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(ctx context.Context, event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) snapshot() []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]events.Event, len(e.events))
	copy(out, e.events)
	return out
}

func newTestRegistry(t *testing.T, tls ...tools.Tool) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	for _, tool := range tls {
		require.NoError(t, reg.Register(tool))
	}
	return reg
}

func TestAskDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{Role: llm.RoleAssistant, Content: "Здравствуйте! Чем помочь?"},
		},
	}
	assistant := New(provider, newTestRegistry(t), "Ты ассистент магазина.")

	result, err := assistant.Ask(context.Background(), nil, "привет")
	require.NoError(t, err)

	assert.Equal(t, "Здравствуйте! Чем помочь?", result.Answer)
	assert.Equal(t, 1, result.Iterations)
	// user + assistant
	require.Len(t, result.Transcript, 2)
	assert.Equal(t, llm.RoleUser, result.Transcript[0].Role)
	assert.Equal(t, llm.RoleAssistant, result.Transcript[1].Role)
}

func TestAskToolCallRound(t *testing.T) {
	tool := &echoTool{name: "search_products"}
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "search_products", Args: "```json\n{\"keyword\":\"чайник\"}\n```"},
				},
			},
			{Role: llm.RoleAssistant, Content: "Вот что нашлось."},
		},
	}
	assistant := New(provider, newTestRegistry(t, tool), "system")

	result, err := assistant.Ask(context.Background(), nil, "найди чайник")
	require.NoError(t, err)

	assert.Equal(t, "Вот что нашлось.", result.Answer)
	assert.Equal(t, 2, result.Iterations)

	// Аргументы должны быть очищены от markdown-ограждения
	assert.Equal(t, `{"keyword":"чайник"}`, tool.lastArgs)

	// user, assistant(tool_calls), tool, assistant
	require.Len(t, result.Transcript, 4)
	toolMsg := result.Transcript[2]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)
	assert.Equal(t, `echo: {"keyword":"чайник"}`, toolMsg.Content)
}

func TestAskEmitsMessageEvents(t *testing.T) {
	tool := &echoTool{name: "search_products"}
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "search_products", Args: `{"keyword":"чайник"}`},
				},
			},
			{Role: llm.RoleAssistant, Content: "Вот что нашлось."},
		},
	}
	rec := &recordingEmitter{}
	assistant := New(provider, newTestRegistry(t, tool), "system", WithEmitter(rec))

	result, err := assistant.Ask(context.Background(), nil, "найди чайник")
	require.NoError(t, err)
	require.Equal(t, "Вот что нашлось.", result.Answer)

	var messages []events.MessageData
	var sawDone bool
	for _, ev := range rec.snapshot() {
		switch ev.Type {
		case events.EventMessage:
			data, ok := ev.Data.(events.MessageData)
			require.True(t, ok)
			messages = append(messages, data)
		case events.EventDone:
			sawDone = true
		}
	}

	// Ход с чистым tool call текста не несёт, поэтому message ровно один
	require.Len(t, messages, 1)
	assert.Equal(t, "Вот что нашлось.", messages[0].Content)
	assert.True(t, sawDone)
}

func TestAskUnknownToolFedBackToModel(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "no_such_tool", Args: "{}"},
				},
			},
			{Role: llm.RoleAssistant, Content: "Извините, не получилось."},
		},
	}
	assistant := New(provider, newTestRegistry(t), "system")

	result, err := assistant.Ask(context.Background(), nil, "вопрос")
	require.NoError(t, err)

	assert.Equal(t, "Извините, не получилось.", result.Answer)
	toolMsg := result.Transcript[2]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "tool not found")
}

func TestAskMaxIterationsForcesFinalAnswer(t *testing.T) {
	tool := &echoTool{name: "search_products"}
	loopResponse := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call-x", Name: "search_products", Args: "{}"},
		},
	}
	provider := &scriptedProvider{
		responses: []llm.Message{
			loopResponse,
			loopResponse,
			{Role: llm.RoleAssistant, Content: "Итоговый ответ по собранным данным."},
		},
	}
	assistant := New(provider, newTestRegistry(t, tool), "system", WithMaxIterations(2))

	result, err := assistant.Ask(context.Background(), nil, "вопрос")
	require.NoError(t, err)

	assert.Equal(t, "Итоговый ответ по собранным данным.", result.Answer)
	assert.Equal(t, 3, result.Iterations)

	// Финальный вызов обязан идти без определений инструментов
	require.Len(t, provider.toolDefsPerCall, 3)
	assert.True(t, provider.toolDefsPerCall[0])
	assert.True(t, provider.toolDefsPerCall[1])
	assert.False(t, provider.toolDefsPerCall[2])
}

func TestAskStreamDeltas(t *testing.T) {
	provider := &streamingProvider{chunks: []string{"Вот ", "чайник ", "Molnia."}}
	assistant := New(provider, newTestRegistry(t), "system")

	var deltas []string
	result, err := assistant.AskStream(context.Background(), nil, "чайник", func(delta string) {
		deltas = append(deltas, delta)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Вот ", "чайник ", "Molnia."}, deltas)
	assert.Equal(t, "Вот чайник Molnia.", result.Answer)
}

// slowTool блокируется до отмены контекста.
type slowTool struct{}

func (slowTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "slow_tool",
		Description: "hangs",
		Parameters: tools.JSONSchema{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func (slowTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAskToolTimeout(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "slow_tool", Args: "{}"},
				},
			},
			{Role: llm.RoleAssistant, Content: "ответ"},
		},
	}
	assistant := New(provider, newTestRegistry(t, slowTool{}), "system",
		WithToolTimeout(20*time.Millisecond))

	result, err := assistant.Ask(context.Background(), nil, "вопрос")
	require.NoError(t, err)

	toolMsg := result.Transcript[2]
	assert.Contains(t, toolMsg.Content, "exceeded timeout")
	assert.Equal(t, "ответ", result.Answer)
}
