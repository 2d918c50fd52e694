package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

func testScoringConfig() config.ScoringConfig {
	cfg := config.ScoringConfig{}
	return cfg.GetDefaults()
}

// fixedJudge всегда возвращает один и тот же вердикт.
type fixedJudge struct {
	response string
	err      error
	calls    int
}

func (j *fixedJudge) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	j.calls++
	if j.err != nil {
		return llm.Message{}, j.err
	}
	return llm.Message{Role: llm.RoleAssistant, Content: j.response}, nil
}

// staticScorer — скорер с заранее известным результатом (без LLM).
type staticScorer struct {
	name    string
	weight  float64
	score   float64
	skipped bool
}

func (s staticScorer) Name() string    { return s.name }
func (s staticScorer) Weight() float64 { return s.weight }
func (s staticScorer) Score(ctx context.Context, input Input) (SubScore, error) {
	return SubScore{Name: s.name, Weight: s.weight, Score: s.score, Skipped: s.skipped}, nil
}

func TestParseJudgeResponse(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		score, explanation, err := parseJudgeResponse(`{"score": 0.8, "explanation": "ок"}`)
		require.NoError(t, err)
		assert.Equal(t, 0.8, score)
		assert.Equal(t, "ок", explanation)
	})

	t.Run("clamps out of range", func(t *testing.T) {
		score, _, err := parseJudgeResponse(`{"score": 1.7}`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)

		score, _, err = parseJudgeResponse(`{"score": -0.3}`)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("markdown fence", func(t *testing.T) {
		score, _, err := parseJudgeResponse("```json\n{\"score\": 0.5}\n```")
		require.NoError(t, err)
		assert.Equal(t, 0.5, score)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := parseJudgeResponse("не оценю")
		assert.Error(t, err)
	})
}

func TestRubricScorerTopicShortCircuit(t *testing.T) {
	judge := &fixedJudge{response: `{"score": 1.0}`}
	scorer := NewRubricScorer(judge, "price_accuracy", "рубрика", 0.3, priceTopics...)

	// Тема цены не затронута: судья не вызывается
	sub, err := scorer.Score(context.Background(), Input{
		Query:    "что есть в магазине?",
		Response: "У нас большой выбор товаров для дома.",
	})
	require.NoError(t, err)
	assert.True(t, sub.Skipped)
	assert.Equal(t, 0, judge.calls)

	// Тема цены затронута (регистронезависимо)
	sub, err = scorer.Score(context.Background(), Input{
		Query:    "сколько стоит чайник?",
		Response: "Чайник Molnia стоит 2599 РУБ.",
	})
	require.NoError(t, err)
	assert.False(t, sub.Skipped)
	assert.Equal(t, 1.0, sub.Score)
	assert.Equal(t, 1, judge.calls)
}

func TestRubricScorerUnparseableJudge(t *testing.T) {
	judge := &fixedJudge{response: "затрудняюсь ответить"}
	scorer := NewRubricScorer(judge, "relevance", "рубрика", 0.5)

	sub, err := scorer.Score(context.Background(), Input{Query: "q", Response: "r"})
	require.NoError(t, err)
	assert.False(t, sub.Skipped)
	assert.Equal(t, 0.0, sub.Score)
	assert.NotEmpty(t, sub.Explanation)
}

func TestRubricScorerTransportError(t *testing.T) {
	judge := &fixedJudge{err: errors.New("api down")}
	scorer := NewRubricScorer(judge, "relevance", "рубрика", 0.5)

	_, err := scorer.Score(context.Background(), Input{Query: "q", Response: "r"})
	assert.Error(t, err)
}

func TestCompositeWeighting(t *testing.T) {
	t.Run("all scorers active", func(t *testing.T) {
		composite := NewComposite(
			staticScorer{name: "a", weight: 0.5, score: 1.0},
			staticScorer{name: "b", weight: 0.3, score: 0.5},
			staticScorer{name: "c", weight: 0.2, score: 0.0},
		)
		eval, err := composite.Evaluate(context.Background(), Input{})
		require.NoError(t, err)
		// 0.5*1.0 + 0.3*0.5 + 0.2*0.0 = 0.65
		assert.InDelta(t, 0.65, eval.Total, 1e-9)
		assert.Len(t, eval.SubScores, 3)
	})

	t.Run("skipped weight renormalised", func(t *testing.T) {
		composite := NewComposite(
			staticScorer{name: "a", weight: 0.5, score: 1.0},
			staticScorer{name: "b", weight: 0.3, score: 0.5},
			staticScorer{name: "c", weight: 0.2, skipped: true},
		)
		eval, err := composite.Evaluate(context.Background(), Input{})
		require.NoError(t, err)
		// (0.5*1.0 + 0.3*0.5) / (0.5 + 0.3) = 0.8125
		assert.InDelta(t, 0.8125, eval.Total, 1e-9)
	})

	t.Run("all skipped", func(t *testing.T) {
		composite := NewComposite(
			staticScorer{name: "a", weight: 0.5, skipped: true},
		)
		eval, err := composite.Evaluate(context.Background(), Input{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, eval.Total)
	})
}

func TestDefaultCompositeEndToEnd(t *testing.T) {
	judge := &fixedJudge{response: `{"score": 0.9, "explanation": "хорошо"}`}
	composite := NewDefaultComposite(judge, testScoringConfig())

	eval, err := composite.Evaluate(context.Background(), Input{
		Query:    "сколько стоит чайник и есть ли он в наличии?",
		Response: "Чайник стоит 2599 руб., в наличии 12 шт.",
	})
	require.NoError(t, err)

	// Все три критерия активны и получили 0.9
	require.Len(t, eval.SubScores, 3)
	for _, sub := range eval.SubScores {
		assert.False(t, sub.Skipped, sub.Name)
	}
	assert.InDelta(t, 0.9, eval.Total, 1e-9)
}
