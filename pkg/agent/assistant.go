// Package agent реализует торгового ассистента поверх llm.Provider.
//
// Ассистент ведёт диалог с покупателем и через Function Calling обращается
// к инструментам каталога (поиск товаров, карточка товара, наличие).
// Цикл "LLM решает -> инструменты выполняются -> результаты возвращаются в LLM"
// ограничен максимальным числом итераций.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/vitrina-ai/pkg/events"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

const (
	// defaultMaxIterations — лимит циклов tool calling на один запрос.
	defaultMaxIterations = 5

	// defaultToolTimeout — защитный timeout на выполнение одного инструмента.
	defaultToolTimeout = 30 * time.Second
)

// Assistant — торговый ассистент магазина.
//
// Immutable после создания, безопасен для конкурентного использования:
// всё состояние диалога передаётся через аргументы Ask/AskStream.
type Assistant struct {
	provider      llm.Provider
	registry      *tools.Registry
	emitter       events.Emitter
	systemPrompt  string
	maxIterations int
	toolTimeout   time.Duration
}

// Option — функциональная опция конфигурации Assistant.
type Option func(*Assistant)

// WithEmitter подключает наблюдателя событий (TUI, HTTP-стриминг).
func WithEmitter(e events.Emitter) Option {
	return func(a *Assistant) {
		if e != nil {
			a.emitter = e
		}
	}
}

// WithMaxIterations переопределяет лимит итераций tool calling.
func WithMaxIterations(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithToolTimeout переопределяет timeout выполнения одного инструмента.
func WithToolTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.toolTimeout = d
		}
	}
}

// New создаёт ассистента.
//
// systemPrompt задаёт роль и правила поведения (из prompts/assistant_system.yaml).
func New(provider llm.Provider, registry *tools.Registry, systemPrompt string, opts ...Option) *Assistant {
	a := &Assistant{
		provider:      provider,
		registry:      registry,
		emitter:       events.NopEmitter{},
		systemPrompt:  systemPrompt,
		maxIterations: defaultMaxIterations,
		toolTimeout:   defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AskResult — результат одного запроса к ассистенту.
type AskResult struct {
	// Answer — финальный текстовый ответ ассистента.
	Answer string

	// Transcript — новые сообщения этого запроса: user, assistant
	// (включая tool calls) и tool результаты. Используется для
	// сохранения истории сессии.
	Transcript []llm.Message

	// Iterations — количество обращений к LLM.
	Iterations int
}

// Ask выполняет один запрос пользователя и возвращает финальный ответ.
//
// history — предыдущие сообщения сессии (без системного промпта).
func (a *Assistant) Ask(ctx context.Context, history []llm.Message, userQuery string) (AskResult, error) {
	return a.run(ctx, history, userQuery, nil)
}

// AskStream выполняет запрос с потоковой передачей финального ответа.
//
// onDelta вызывается для каждой порции текста ответа. Если провайдер
// не реализует llm.StreamingProvider, ответ приходит одной порцией.
func (a *Assistant) AskStream(ctx context.Context, history []llm.Message, userQuery string, onDelta func(delta string)) (AskResult, error) {
	return a.run(ctx, history, userQuery, onDelta)
}

func (a *Assistant) run(ctx context.Context, history []llm.Message, userQuery string, onDelta func(string)) (AskResult, error) {
	a.emitter.Emit(ctx, events.Event{
		Type:      events.EventThinking,
		Data:      events.ThinkingData{Query: userQuery},
		Timestamp: time.Now(),
	})

	userMsg := llm.UserMessage(userQuery)
	transcript := []llm.Message{userMsg}

	messages := make([]llm.Message, 0, len(history)+2)
	if a.systemPrompt != "" {
		messages = append(messages, llm.SystemMessage(a.systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, userMsg)

	defs := a.registry.GetDefinitions()

	iterations := 0
	for iterations < a.maxIterations {
		iterations++

		resp, err := a.generate(ctx, messages, defs, onDelta)
		if err != nil {
			a.emitError(ctx, err)
			return AskResult{Transcript: transcript, Iterations: iterations}, fmt.Errorf("llm generate failed: %w", err)
		}

		messages = append(messages, resp)
		transcript = append(transcript, resp)
		a.emitMessage(ctx, resp.Content)

		if len(resp.ToolCalls) == 0 {
			a.emitDone(ctx, resp.Content)
			return AskResult{Answer: resp.Content, Transcript: transcript, Iterations: iterations}, nil
		}

		for _, tc := range resp.ToolCalls {
			toolMsg := a.executeToolCall(ctx, tc)
			messages = append(messages, toolMsg)
			transcript = append(transcript, toolMsg)
		}
	}

	// Лимит итераций исчерпан: финальный запрос без инструментов,
	// чтобы модель сформулировала ответ из уже собранных данных.
	utils.Warn("assistant: max iterations reached, forcing final answer", "iterations", iterations)
	resp, err := a.generate(ctx, messages, nil, onDelta)
	if err != nil {
		a.emitError(ctx, err)
		return AskResult{Transcript: transcript, Iterations: iterations}, fmt.Errorf("final llm generate failed: %w", err)
	}
	iterations++
	transcript = append(transcript, resp)
	a.emitMessage(ctx, resp.Content)

	a.emitDone(ctx, resp.Content)
	return AskResult{Answer: resp.Content, Transcript: transcript, Iterations: iterations}, nil
}

// generate вызывает LLM, используя стриминг когда он доступен и запрошен.
func (a *Assistant) generate(ctx context.Context, messages []llm.Message, defs []tools.ToolDefinition, onDelta func(string)) (llm.Message, error) {
	opts := make([]any, 0, 1)
	if len(defs) > 0 {
		opts = append(opts, defs)
	}

	streamer, ok := a.provider.(llm.StreamingProvider)
	if !ok || onDelta == nil {
		return a.provider.Generate(ctx, messages, opts...)
	}

	return streamer.GenerateStream(ctx, messages, func(chunk llm.StreamChunk) {
		if chunk.Type != llm.ChunkContent || chunk.Delta == "" {
			return
		}
		onDelta(chunk.Delta)
		a.emitter.Emit(ctx, events.Event{
			Type:      events.EventMessageChunk,
			Data:      events.ChunkData{Delta: chunk.Delta, Accumulated: chunk.Content},
			Timestamp: time.Now(),
		})
	}, opts...)
}

// executeToolCall выполняет один tool call с защитным timeout.
//
// Ошибки выполнения не прерывают диалог: текст ошибки возвращается
// модели как результат инструмента, и она сама решает что делать дальше.
func (a *Assistant) executeToolCall(ctx context.Context, tc llm.ToolCall) llm.Message {
	start := time.Now()
	cleanArgs := utils.CleanJsonBlock(tc.Args)

	a.emitter.Emit(ctx, events.Event{
		Type:      events.EventToolCall,
		Data:      events.ToolCallData{ToolName: tc.Name, Args: cleanArgs},
		Timestamp: time.Now(),
	})

	result := a.callWithTimeout(ctx, tc.Name, cleanArgs)

	a.emitter.Emit(ctx, events.Event{
		Type: events.EventToolResult,
		Data: events.ToolResultData{
			ToolName: tc.Name,
			Result:   result,
			Duration: time.Since(start),
		},
		Timestamp: time.Now(),
	})

	return llm.Message{
		Role:       llm.RoleTool,
		ToolCallID: tc.ID,
		Content:    result,
	}
}

func (a *Assistant) callWithTimeout(ctx context.Context, name, args string) string {
	tool, err := a.registry.Get(name)
	if err != nil {
		utils.Warn("assistant: tool not found", "tool", name)
		return fmt.Sprintf("Error: tool not found: %s", name)
	}

	toolCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	type execResult struct {
		output string
		err    error
	}
	resultChan := make(chan execResult, 1)

	go func() {
		output, execErr := tool.Execute(toolCtx, args)
		resultChan <- execResult{output, execErr}
	}()

	select {
	case <-toolCtx.Done():
		if toolCtx.Err() == context.DeadlineExceeded {
			utils.Warn("assistant: tool timeout", "tool", name, "timeout", a.toolTimeout)
			return fmt.Sprintf("Error: tool %q exceeded timeout of %v", name, a.toolTimeout)
		}
		return "Error: tool execution was cancelled"

	case res := <-resultChan:
		if res.err != nil {
			utils.Error("assistant: tool failed", "tool", name, "error", res.err)
			return fmt.Sprintf("Error: %v", res.err)
		}
		return res.output
	}
}

// emitMessage публикует готовое сообщение ассистента. Сообщения
// без текста (чистый tool call) не публикуются.
func (a *Assistant) emitMessage(ctx context.Context, content string) {
	if content == "" {
		return
	}
	a.emitter.Emit(ctx, events.Event{
		Type:      events.EventMessage,
		Data:      events.MessageData{Content: content},
		Timestamp: time.Now(),
	})
}

func (a *Assistant) emitDone(ctx context.Context, content string) {
	a.emitter.Emit(ctx, events.Event{
		Type:      events.EventDone,
		Data:      events.MessageData{Content: content},
		Timestamp: time.Now(),
	})
}

func (a *Assistant) emitError(ctx context.Context, err error) {
	a.emitter.Emit(ctx, events.Event{
		Type:      events.EventError,
		Data:      events.ErrorData{Err: err},
		Timestamp: time.Now(),
	})
}
