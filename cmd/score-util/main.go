/*
Score Util - оценка ответов ассистента из командной строки.

Принимает либо пару query/response флагами, либо JSON файл с массивом
пар. Печатает оценку в JSON на stdout.

	score-util -config config.yaml -query "сколько стоит чайник?" -response "2599 руб."
	score-util -config config.yaml -file transcript.json
*/

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/factory"
	"github.com/ilkoid/vitrina-ai/pkg/scoring"
)

// transcriptEntry — одна пара из входного файла.
type transcriptEntry struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// entryResult — оценка одной пары.
type entryResult struct {
	Query      string             `json:"query"`
	Response   string             `json:"response"`
	Evaluation scoring.Evaluation `json:"evaluation"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "путь к config.yaml")
	query := flag.String("query", "", "запрос покупателя")
	response := flag.String("response", "", "ответ ассистента")
	file := flag.String("file", "", "JSON файл с массивом пар {query, response}")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	modelDef, ok := cfg.GetScorerModel()
	if !ok {
		log.Fatalf("Модель скоринга не найдена в определениях")
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		log.Fatalf("Ошибка создания провайдера: %v", err)
	}

	composite := scoring.NewDefaultComposite(provider, cfg.Scoring)

	entries, err := collectEntries(*query, *response, *file)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	results := make([]entryResult, 0, len(entries))
	for _, entry := range entries {
		eval, err := composite.Evaluate(ctx, scoring.Input{
			Query:    entry.Query,
			Response: entry.Response,
		})
		if err != nil {
			log.Fatalf("Ошибка оценки: %v", err)
		}
		results = append(results, entryResult{
			Query:      entry.Query,
			Response:   entry.Response,
			Evaluation: eval,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	// Одна пара — печатаем только оценку, без обёртки
	if len(results) == 1 && *file == "" {
		if err := enc.Encode(results[0].Evaluation); err != nil {
			log.Fatalf("Ошибка вывода: %v", err)
		}
		return
	}
	if err := enc.Encode(results); err != nil {
		log.Fatalf("Ошибка вывода: %v", err)
	}
}

// collectEntries собирает пары из флагов или файла.
func collectEntries(query, response, file string) ([]transcriptEntry, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("чтение файла: %w", err)
		}
		var entries []transcriptEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("разбор файла: %w", err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("файл не содержит пар query/response")
		}
		return entries, nil
	}

	if query == "" || response == "" {
		return nil, fmt.Errorf("нужны -query и -response, либо -file")
	}
	return []transcriptEntry{{Query: query, Response: response}}, nil
}
