package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — вся конфигурация приложения, один в один по config.yaml.
type AppConfig struct {
	Models   ModelsConfig  `yaml:"models"`
	Server   ServerConfig  `yaml:"server"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Sessions SessionConfig `yaml:"sessions"`
	Images   ImagesConfig  `yaml:"images"`
	Scoring  ScoringConfig `yaml:"scoring"`
	App      AppSpecific   `yaml:"app"`
}

// ModelsConfig — словарь LLM моделей и дефолтные алиасы по ролям.
type ModelsConfig struct {
	DefaultChat    string              `yaml:"default_chat"`    // Алиас модели для чата
	DefaultExtract string              `yaml:"default_extract"` // Алиас модели для извлечения JSON
	DefaultScorer  string              `yaml:"default_scorer"`  // Алиас модели для скоринга
	Definitions    map[string]ModelDef `yaml:"definitions"`     // Словарь определений моделей
}

// ModelDef — подключение к одной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "deepseek" и т.д.
	ModelName   string        `yaml:"model_name"` // Имя модели на стороне API
	APIKey      string        `yaml:"api_key"`    // Можно ${VAR}
	BaseURL     string        `yaml:"base_url"`   // Custom endpoint для совместимых API
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`    // Go парсит строки вида "60s", "1m"
	RateLimit   int           `yaml:"rate_limit"` // Запросов в минуту (0 = без лимита)
	Burst       int           `yaml:"burst"`      // Burst для rate limiter
}

// ServerConfig — настройки HTTP сервера витрины.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// GetDefaults заполняет пропущенные поля секции server.
func (c *ServerConfig) GetDefaults() ServerConfig {
	result := *c

	if result.Addr == "" {
		result.Addr = ":8080"
	}
	if result.ReadTimeout == 0 {
		result.ReadTimeout = 30 * time.Second
	}
	if result.WriteTimeout == 0 {
		// Стриминг ответа может идти долго
		result.WriteTimeout = 5 * time.Minute
	}

	return result
}

// CatalogConfig — настройки каталога товаров.
type CatalogConfig struct {
	// Driver — "memory" или "sqlite"
	Driver string `yaml:"driver"`

	// SeedPath — путь к YAML файлу с товарами для memory драйвера
	// и для начального наполнения sqlite.
	SeedPath string `yaml:"seed_path"`

	// SQLitePath — путь к файлу базы для sqlite драйвера.
	SQLitePath string `yaml:"sqlite_path"`
}

// GetDefaults заполняет пропущенные поля секции catalog.
func (c *CatalogConfig) GetDefaults() CatalogConfig {
	result := *c

	if result.Driver == "" {
		result.Driver = "memory"
	}
	if result.SeedPath == "" {
		result.SeedPath = "catalog.yaml"
	}
	if result.SQLitePath == "" {
		result.SQLitePath = "vitrina.db"
	}

	return result
}

// SessionConfig — настройки хранилища сессий чата.
type SessionConfig struct {
	// Driver — "memory" или "sqlite"
	Driver string `yaml:"driver"`

	// SQLitePath — путь к файлу базы для sqlite драйвера.
	SQLitePath string `yaml:"sqlite_path"`

	// HistoryLimit — макс. количество сообщений истории на запрос к LLM.
	HistoryLimit int `yaml:"history_limit"`
}

// GetDefaults заполняет пропущенные поля секции sessions.
func (c *SessionConfig) GetDefaults() SessionConfig {
	result := *c

	if result.Driver == "" {
		result.Driver = "memory"
	}
	if result.SQLitePath == "" {
		result.SQLitePath = "vitrina.db"
	}
	if result.HistoryLimit == 0 {
		result.HistoryLimit = 40
	}

	return result
}

// ImagesConfig — настройки S3 хранилища изображений товаров.
//
// Витрина не обрабатывает изображения, только раздаёт presigned ссылки.
type ImagesConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Endpoint  string        `yaml:"endpoint"`
	Region    string        `yaml:"region"`
	Bucket    string        `yaml:"bucket"`
	AccessKey string        `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string        `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool          `yaml:"use_ssl"`
	URLExpiry time.Duration `yaml:"url_expiry"` // Время жизни presigned ссылки
}

// GetDefaults заполняет пропущенные поля секции images.
func (c *ImagesConfig) GetDefaults() ImagesConfig {
	result := *c

	if result.Region == "" {
		result.Region = "us-east-1"
	}
	if result.URLExpiry == 0 {
		result.URLExpiry = 15 * time.Minute
	}

	return result
}

// ScoringConfig — веса для комбинирования суб-оценок скореров.
type ScoringConfig struct {
	RelevanceWeight    float64 `yaml:"relevance_weight"`
	AccuracyWeight     float64 `yaml:"accuracy_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight"`
}

// GetDefaults возвращает дефолтные веса если секция не заполнена.
func (c *ScoringConfig) GetDefaults() ScoringConfig {
	result := *c

	if result.RelevanceWeight == 0 && result.AccuracyWeight == 0 && result.CompletenessWeight == 0 {
		result.RelevanceWeight = 0.5
		result.AccuracyWeight = 0.3
		result.CompletenessWeight = 0.2
	}

	return result
}

// AppSpecific — настройки, не привязанные к конкретной подсистеме.
type AppSpecific struct {
	Debug         bool   `yaml:"debug"`
	PromptsDir    string `yaml:"prompts_dir"`
	MaxIterations int    `yaml:"max_iterations"` // Лимит итераций tool-цикла ассистента
}

// Load читает config.yaml: подставляет переменные окружения,
// накладывает дефолты и валидирует результат.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// ${VAR} и $VAR раскрываются из окружения до разбора YAML,
	// так секреты не живут в файле
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	cfg.Server = cfg.Server.GetDefaults()
	cfg.Catalog = cfg.Catalog.GetDefaults()
	cfg.Sessions = cfg.Sessions.GetDefaults()
	cfg.Images = cfg.Images.GetDefaults()
	cfg.Scoring = cfg.Scoring.GetDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate отлавливает конфигурацию, с которой сервис гарантированно
// не заработает: пустой словарь моделей, битые алиасы, включённые
// изображения без S3 реквизитов.
func (c *AppConfig) validate() error {
	if len(c.Models.Definitions) == 0 {
		return fmt.Errorf("models.definitions is required")
	}
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	if c.Images.Enabled {
		if c.Images.Endpoint == "" {
			return fmt.Errorf("images.endpoint is required when images.enabled")
		}
		if c.Images.Bucket == "" {
			return fmt.Errorf("images.bucket is required when images.enabled")
		}
	}
	return nil
}

// Доступ к моделям по ролям

// GetChatModel возвращает конфигурацию модели чата по алиасу или дефолтную.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// GetExtractModel возвращает модель для извлечения структурированных данных.
// Fallback на default_chat если default_extract не задан.
func (c *AppConfig) GetExtractModel() (ModelDef, bool) {
	name := c.Models.DefaultExtract
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// GetScorerModel возвращает модель для скоринга ответов.
// Fallback на default_chat если default_scorer не задан.
func (c *AppConfig) GetScorerModel() (ModelDef, bool) {
	name := c.Models.DefaultScorer
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}
