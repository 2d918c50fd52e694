// Package events — события хода работы ассистента.
//
// pkg/agent публикует события через интерфейс Emitter и ничего не
// знает о потребителях; TUI и HTTP-стриминг подключаются снаружи
// подписчиками:
//
//	emitter := events.NewChanEmitter(64)
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventToolCall:
//	        ui.showToolCall(event.Data)
//	    case events.EventMessageChunk:
//	        ui.appendChunk(event.Data)
//	    }
//	}
//
// Реализации обоих интерфейсов обязаны быть thread-safe: агент
// эмитит из своих goroutine.
package events

import (
	"context"
	"time"
)

// EventType различает стадии обработки запроса.
type EventType string

const (
	// EventThinking — ассистент принял запрос в работу.
	EventThinking EventType = "thinking"

	// EventToolCall — модель запросила вызов инструмента.
	EventToolCall EventType = "tool_call"

	// EventToolResult — инструмент отработал.
	EventToolResult EventType = "tool_result"

	// EventMessageChunk — очередная порция потокового текста.
	EventMessageChunk EventType = "message_chunk"

	// EventMessage — готовое сообщение целиком.
	EventMessage EventType = "message"

	// EventError — обработка сорвалась.
	EventError EventType = "error"

	// EventDone — ассистент закончил, финальный ответ внутри.
	EventDone EventType = "done"
)

// EventData — закрытый интерфейс полезной нагрузки события.
// Реализовать его могут только типы этого пакета, поэтому switch
// по типу данных исчерпывающий.
type EventData interface {
	eventData()
}

// ThinkingData — запрос пользователя, с которого началась обработка.
type ThinkingData struct {
	Query string
}

func (ThinkingData) eventData() {}

// ToolCallData — какой инструмент и с какими аргументами зовёт модель.
type ToolCallData struct {
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData — результат инструмента и сколько он выполнялся.
type ToolResultData struct {
	ToolName string
	Result   string
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// ChunkData — порция потокового ответа.
type ChunkData struct {
	// Delta — только что пришедший фрагмент.
	Delta string

	// Accumulated — весь текст ответа к этому моменту.
	Accumulated string
}

func (ChunkData) eventData() {}

// MessageData — текст для EventMessage и EventDone.
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// ErrorData — ошибка для EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event — одно событие ассистента. Тип данных соответствует Type:
// ThinkingData для thinking, ToolCallData для tool_call,
// ToolResultData для tool_result, ChunkData для message_chunk,
// MessageData для message и done, ErrorData для error.
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// Emitter принимает события от агента. Агент зависит от этого
// интерфейса, а не от конкретного UI.
type Emitter interface {
	// Emit публикует событие. При отменённом контексте
	// реализация обязана вернуться, не блокируясь.
	Emit(ctx context.Context, event Event)
}

// Subscriber — читающая сторона потока событий.
type Subscriber interface {
	// Events отдаёт канал событий; он закрывается
	// вместе с Emitter.Close().
	Events() <-chan Event

	// Close освобождает ресурсы подписчика.
	Close()
}

// NopEmitter молча отбрасывает события. Дефолт для агента,
// за которым никто не наблюдает.
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, event Event) {}

var _ Emitter = NopEmitter{}
