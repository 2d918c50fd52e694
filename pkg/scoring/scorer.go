// Package scoring оценивает качество ответов ассистента.
//
// Каждый Scorer выставляет суб-оценку 0..1 по своему критерию,
// Composite комбинирует их фиксированными линейными весами.
// Критерии с тематическим фильтром (цена, наличие) пропускаются,
// когда тема не затронута в ответе; веса оставшихся критериев
// масштабируются так, чтобы их сумма оставалась равной 1.
package scoring

import (
	"context"
	"fmt"
)

// Input — оцениваемая пара запрос/ответ.
type Input struct {
	// Query — исходный запрос покупателя.
	Query string

	// Response — ответ ассистента, который оценивается.
	Response string
}

// SubScore — результат одного критерия.
type SubScore struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Skipped     bool    `json:"skipped"`
	Explanation string  `json:"explanation,omitempty"`
}

// Evaluation — итоговая оценка ответа.
type Evaluation struct {
	// Total — взвешенная сумма суб-оценок, 0..1.
	// Веса пропущенных критериев перераспределяются на оставшиеся.
	Total float64 `json:"total"`

	SubScores []SubScore `json:"sub_scores"`
}

// Scorer — один критерий оценки.
type Scorer interface {
	// Name возвращает имя критерия.
	Name() string

	// Weight возвращает вес критерия в итоговой оценке.
	Weight() float64

	// Score оценивает ответ. Skipped=true означает, что критерий
	// неприменим к этому ответу и не участвует в итоговой оценке.
	Score(ctx context.Context, input Input) (SubScore, error)
}

// Composite комбинирует несколько скореров линейными весами.
type Composite struct {
	scorers []Scorer
}

// NewComposite создаёт составной скорер.
func NewComposite(scorers ...Scorer) *Composite {
	return &Composite{scorers: scorers}
}

// Evaluate выполняет все критерии и возвращает итоговую оценку.
//
// Если все критерии пропущены, Total равен 0.
func (c *Composite) Evaluate(ctx context.Context, input Input) (Evaluation, error) {
	eval := Evaluation{
		SubScores: make([]SubScore, 0, len(c.scorers)),
	}

	var weightedSum, weightSum float64
	for _, scorer := range c.scorers {
		sub, err := scorer.Score(ctx, input)
		if err != nil {
			return Evaluation{}, fmt.Errorf("scorer '%s' failed: %w", scorer.Name(), err)
		}
		eval.SubScores = append(eval.SubScores, sub)

		if sub.Skipped {
			continue
		}
		weightedSum += sub.Score * sub.Weight
		weightSum += sub.Weight
	}

	// Перенормировка: сумма активных весов приводится к 1
	if weightSum > 0 {
		eval.Total = weightedSum / weightSum
	}
	return eval, nil
}
