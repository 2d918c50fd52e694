package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/prompt"
	"github.com/ilkoid/vitrina-ai/pkg/utils"
)

// RubricScorer — LLM-судья: повторно вызывает модель с рубрикой
// и просит выставить оценку 0..1.
type RubricScorer struct {
	name     string
	weight   float64
	topics   []string
	provider llm.Provider
	prompt   *prompt.PromptFile
}

// NewRubricScorer создаёт скорер с заданной рубрикой.
//
// topics — маркеры темы (подстроки, регистронезависимо). Если заданы
// и ни один не встречается в ответе, критерий пропускается.
func NewRubricScorer(provider llm.Provider, name, rubric string, weight float64, topics ...string) *RubricScorer {
	return &RubricScorer{
		name:     name,
		weight:   weight,
		topics:   topics,
		provider: provider,
		prompt:   judgePrompt(rubric),
	}
}

// judgePrompt строит промпт судьи вокруг текста рубрики.
func judgePrompt(rubric string) *prompt.PromptFile {
	return &prompt.PromptFile{
		Config: prompt.PromptConfig{
			Temperature: 0.0,
			Format:      "json_object",
		},
		Messages: []prompt.Message{
			{
				Role: "system",
				Content: "Ты строгий аудитор ответов торгового ассистента.\n" +
					"Критерий оценки: " + rubric + "\n" +
					"Ответь строго JSON объектом:\n" +
					`{"score": число от 0 до 1, "explanation": "краткое обоснование"}`,
			},
			{
				Role: "user",
				Content: "Запрос покупателя:\n{{.Query}}\n\n" +
					"Ответ ассистента:\n{{.Response}}",
			},
		},
	}
}

// Name возвращает имя критерия.
func (s *RubricScorer) Name() string { return s.name }

// Weight возвращает вес критерия.
func (s *RubricScorer) Weight() float64 { return s.weight }

// Score оценивает ответ через LLM-судью.
//
// Ошибка транспорта возвращается вызывающему. Неразборчивый ответ
// судьи не ломает оценку: критерий получает 0 с пояснением.
func (s *RubricScorer) Score(ctx context.Context, input Input) (SubScore, error) {
	sub := SubScore{
		Name:   s.name,
		Weight: s.weight,
	}

	if len(s.topics) > 0 && !s.topicPresent(input.Response) {
		sub.Skipped = true
		sub.Explanation = "тема не затронута в ответе"
		return sub, nil
	}

	rendered, err := s.prompt.RenderMessages(map[string]string{
		"Query":    input.Query,
		"Response": input.Response,
	})
	if err != nil {
		return SubScore{}, fmt.Errorf("render judge prompt: %w", err)
	}

	messages := make([]llm.Message, len(rendered))
	for i, m := range rendered {
		messages[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}

	resp, err := s.provider.Generate(ctx, messages,
		llm.WithTemperature(0.0), llm.WithFormat("json_object"))
	if err != nil {
		return SubScore{}, fmt.Errorf("judge llm call: %w", err)
	}

	score, explanation, err := parseJudgeResponse(resp.Content)
	if err != nil {
		utils.Warn("scoring: unparseable judge response", "scorer", s.name, "raw", resp.Content)
		sub.Score = 0
		sub.Explanation = "ответ судьи не удалось разобрать"
		return sub, nil
	}

	sub.Score = score
	sub.Explanation = explanation
	return sub, nil
}

// topicPresent проверяет, встречается ли в ответе хотя бы один маркер темы.
func (s *RubricScorer) topicPresent(response string) bool {
	for _, topic := range s.topics {
		if utils.ContainsFold(response, topic) {
			return true
		}
	}
	return false
}

// parseJudgeResponse разбирает JSON судьи и зажимает оценку в [0, 1].
func parseJudgeResponse(raw string) (float64, string, error) {
	cleaned := utils.ExtractJSON(utils.CleanJsonBlock(raw))
	if cleaned == "" {
		return 0, "", fmt.Errorf("no JSON object in judge response")
	}

	var parsed struct {
		Score       float64 `json:"score"`
		Explanation string  `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return 0, "", fmt.Errorf("unmarshal judge response: %w", err)
	}

	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 1 {
		parsed.Score = 1
	}
	return parsed.Score, parsed.Explanation, nil
}
