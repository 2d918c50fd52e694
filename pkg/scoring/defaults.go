package scoring

import (
	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

// Маркеры тем для тематических критериев.
//
// Подстроки покрывают словоформы: "налич" находит и "наличие",
// и "в наличии".
var (
	priceTopics = []string{"цен", "руб", "₽", "стоит", "стоимост"}
	stockTopics = []string{"налич", "остат", "шт.", "склад", "доступн"}
)

// NewDefaultComposite собирает стандартный набор критериев магазина.
//
// Веса берутся из конфигурации (scoring секция config.yaml):
//   - relevance — насколько ответ отвечает на запрос (всегда применяется)
//   - price_accuracy — точность цен (только если ответ говорит о ценах)
//   - stock_accuracy — точность наличия (только если ответ говорит о наличии)
func NewDefaultComposite(provider llm.Provider, cfg config.ScoringConfig) *Composite {
	return NewComposite(
		NewRubricScorer(provider, "relevance",
			"Насколько ответ ассистента по существу отвечает на запрос покупателя. "+
				"1 — полностью отвечает, 0 — не относится к запросу.",
			cfg.RelevanceWeight),

		NewRubricScorer(provider, "price_accuracy",
			"Корректно ли ассистент оперирует ценами: цифры правдоподобны, "+
				"валюта указана, нет противоречий внутри ответа.",
			cfg.AccuracyWeight, priceTopics...),

		NewRubricScorer(provider, "stock_accuracy",
			"Корректно ли ассистент говорит о наличии товара: не обещает "+
				"отсутствующий товар и не скрывает имеющийся.",
			cfg.CompletenessWeight, stockTopics...),
	)
}
