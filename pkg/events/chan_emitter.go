package events

import (
	"context"
	"sync"
)

// ChanEmitter раздаёт события ассистента через общий буферизованный
// канал. Дефолтный транспорт для pkg/agent: HTTP стрим и TUI читают
// из него подписчиками.
type ChanEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChanEmitter создаёт эмиттер с каналом на buffer событий.
// При buffer = 0 Emit блокируется до появления читателя.
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch: make(chan Event, buffer),
	}
}

// Emit кладёт событие в канал. После Close или при отменённом
// контексте событие молча отбрасывается: доставка — best effort,
// терять события допустимо, блокировать агента — нет.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	// RLock держится на время отправки: Close берёт пишущую
	// блокировку и не сможет закрыть канал под активным send.
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
		return
	}
}

// Subscribe отдаёт подписчика на общий канал. Несколько подписчиков
// делят один поток: каждое событие достанется ровно одному из них.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close закрывает канал. Повторный вызов безопасен.
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

type chanSubscriber struct {
	ch <-chan Event
}

func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close ничего не делает: канал общий, его закрывает ChanEmitter.
func (s *chanSubscriber) Close() {}

var _ Emitter = (*ChanEmitter)(nil)
var _ Subscriber = (*chanSubscriber)(nil)
