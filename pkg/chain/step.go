// Package chain собирает воркфлоу из последовательных шагов.
//
// Шаг (Step) делает одну вещь и через NextAction говорит цепочке,
// продолжать ли выполнение. Состояние между шагами живёт в ChainContext.
package chain

import (
	"context"
	"fmt"
)

// NextAction сообщает цепочке, что делать после шага.
type NextAction int

const (
	// ActionContinue — перейти к следующему шагу.
	ActionContinue NextAction = iota

	// ActionBreak — остановиться и вернуть накопленный результат.
	// Используется, когда шаг уже знает финальный ответ
	// (например, каталог пуст и генерировать нечего).
	ActionBreak

	// ActionError — остановиться с ошибкой.
	ActionError
)

func (a NextAction) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionBreak:
		return "Break"
	case ActionError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// Step — один шаг пайплайна: извлечь предпочтения, отфильтровать
// каталог, сгенерировать текст. Шаги изолированы друг от друга и
// обмениваются данными только через ChainContext.
type Step interface {
	// Name — имя шага для логов и сообщений об ошибках.
	Name() string

	// Execute выполняет шаг. Изменения состояния идут
	// через thread-safe методы ChainContext.
	Execute(ctx context.Context, chainCtx *ChainContext) (NextAction, error)
}

// StepFunc оборачивает функцию в Step, чтобы не плодить структуры
// ради трёхстрочных шагов.
type StepFunc struct {
	name string
	fn   func(context.Context, *ChainContext) (NextAction, error)
}

// NewStepFunc создаёт Step из функции.
func NewStepFunc(name string, fn func(context.Context, *ChainContext) (NextAction, error)) Step {
	return StepFunc{name: name, fn: fn}
}

func (s StepFunc) Name() string { return s.name }

func (s StepFunc) Execute(ctx context.Context, chainCtx *ChainContext) (NextAction, error) {
	return s.fn(ctx, chainCtx)
}
