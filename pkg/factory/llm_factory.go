package factory

import (
	"fmt"

	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/llm/openai"
)

// NewLLMProvider выбирает адаптер по полю provider из config.yaml.
// Все поддерживаемые провайдеры говорят на OpenAI-совместимом протоколе,
// поэтому за ними стоит один и тот же клиент.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "openai", "deepseek", "openrouter":
		return openai.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
