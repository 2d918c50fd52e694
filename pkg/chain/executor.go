package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// ChainOutput — результат выполнения цепочки.
type ChainOutput struct {
	// Result — финальный результат (текст рекомендации и т.д.)
	Result string

	// StepsRun — количество выполненных шагов
	StepsRun int

	// Duration — общее время выполнения
	Duration time.Duration
}

// SequentialExecutor выполняет шаги строго по порядку.
//
// Выполнение прерывается на ActionBreak (результат готов)
// или на ActionError / ошибке шага.
type SequentialExecutor struct {
	name  string
	steps []Step
}

// NewSequentialExecutor создаёт executor с заданными шагами.
func NewSequentialExecutor(name string, steps ...Step) *SequentialExecutor {
	return &SequentialExecutor{
		name:  name,
		steps: steps,
	}
}

// Execute выполняет все шаги цепочки по порядку.
//
// Уважает context.Context: перед каждым шагом проверяет отмену.
func (e *SequentialExecutor) Execute(ctx context.Context, chainCtx *ChainContext) (ChainOutput, error) {
	start := time.Now()
	stepsRun := 0

	utils.Debug("chain: starting", "chain", e.name, "steps", len(e.steps))

	for _, step := range e.steps {
		select {
		case <-ctx.Done():
			return ChainOutput{StepsRun: stepsRun, Duration: time.Since(start)}, ctx.Err()
		default:
		}

		utils.Debug("chain: executing step", "chain", e.name, "step", step.Name())

		action, err := step.Execute(ctx, chainCtx)
		stepsRun++

		if err != nil {
			utils.Error("chain: step failed", "chain", e.name, "step", step.Name(), "error", err)
			return ChainOutput{
				StepsRun: stepsRun,
				Duration: time.Since(start),
			}, fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}

		if action == ActionError {
			return ChainOutput{
				StepsRun: stepsRun,
				Duration: time.Since(start),
			}, fmt.Errorf("step '%s' signalled error without details", step.Name())
		}

		if action == ActionBreak {
			break
		}
	}

	out := ChainOutput{
		Result:   chainCtx.Result(),
		StepsRun: stepsRun,
		Duration: time.Since(start),
	}
	utils.Debug("chain: finished", "chain", e.name, "steps_run", out.StepsRun, "duration", out.Duration)
	return out, nil
}
