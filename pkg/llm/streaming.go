// Абстракции потоковой генерации.

package llm

import "context"

// StreamingProvider расширяет Provider потоковой генерацией.
// Интерфейс отдельный: адаптер может реализовать только Provider,
// а поддержку стриминга вызывающий код проверяет type assertion.
type StreamingProvider interface {
	Provider

	// GenerateStream отправляет запрос и отдаёт ответ порциями через
	// callback, затем возвращает финальное собранное сообщение.
	//
	// Если модель решила вызвать инструменты, текстовые чанки не
	// приходят: tool calls отдаются целиком в финальном Message.
	//
	// Callback может вызываться из другой goroutine.
	GenerateStream(
		ctx context.Context,
		messages []Message,
		callback func(StreamChunk),
		opts ...any,
	) (Message, error)
}

// StreamChunk — одна порция потокового ответа.
type StreamChunk struct {
	Type ChunkType

	// Content — весь текст, накопленный к этому моменту
	Content string

	// Delta — только что пришедший фрагмент
	Delta string

	Done  bool
	Error error // заполнен при Type == ChunkError
}

// ChunkType различает содержимое, ошибку и завершение потока.
type ChunkType string

const (
	ChunkContent ChunkType = "content"
	ChunkError   ChunkType = "error"
	ChunkDone    ChunkType = "done"
)
