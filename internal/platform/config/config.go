// Package config loads application configuration from an optional YAML file
// and environment variables. All variables use the VOCAB_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Exam        ExamConfig        `yaml:"exam"`
	Delivery    DeliveryConfig    `yaml:"delivery"`
	Output      OutputConfig      `yaml:"output"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Archive     ArchiveConfig     `yaml:"archive"`
	AI          AIConfig          `yaml:"ai"`
	Reading     ReadingConfig     `yaml:"reading"`
	Log         LogConfig         `yaml:"log"`
}

// SourceConfig locates the vocabulary. For the postgres kind Path names the table.
type SourceConfig struct {
	Path  string `yaml:"path"  env:"VOCAB_SOURCE_PATH"  validate:"required"`
	Kind  string `yaml:"kind"  env:"VOCAB_SOURCE_KIND"  validate:"omitempty,oneof=xlsx csv postgres"`
	Sheet string `yaml:"sheet" env:"VOCAB_SOURCE_SHEET"`
}

// DestinationConfig selects the chat channel that receives the documents.
type DestinationConfig struct {
	Kind    string `yaml:"kind"     env:"VOCAB_DESTINATION_KIND"     env-default:"telegram" validate:"oneof=slack telegram websocket"`
	Token   string `yaml:"token"    env:"VOCAB_DESTINATION_TOKEN"`
	Channel string `yaml:"channel"  env:"VOCAB_DESTINATION_CHANNEL"`
	URL     string `yaml:"url"      env:"VOCAB_DESTINATION_URL"      validate:"omitempty,url"`
	APIBase string `yaml:"api_base" env:"VOCAB_DESTINATION_API_BASE" validate:"omitempty,url"`
}

// ExamConfig controls exam generation.
type ExamConfig struct {
	Seed            string `yaml:"seed"             env:"VOCAB_EXAM_SEED"`
	Sample          int    `yaml:"sample"           env:"VOCAB_EXAM_SAMPLE"           env-default:"30"   validate:"min=10,max=100"`
	Strict          bool   `yaml:"strict"           env:"VOCAB_EXAM_STRICT"           env-default:"false"`
	PeerDistractors bool   `yaml:"peer_distractors" env:"VOCAB_EXAM_PEER_DISTRACTORS" env-default:"true"`
	SynonymsPath    string `yaml:"synonyms_path"    env:"VOCAB_EXAM_SYNONYMS_PATH"`
}

// DeliveryConfig controls pacing and retry of document delivery.
type DeliveryConfig struct {
	Delay      time.Duration `yaml:"delay"       env:"VOCAB_DELIVERY_DELAY"       env-default:"2s" validate:"min=0"`
	Attempts   int           `yaml:"attempts"    env:"VOCAB_DELIVERY_ATTEMPTS"    env-default:"3"  validate:"min=1,max=10"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"VOCAB_DELIVERY_RETRY_DELAY" env-default:"5s" validate:"min=0"`
}

// OutputConfig holds where rendered documents are written.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"VOCAB_OUTPUT_DIR" env-default:"./out" validate:"required"`
}

// ScheduleConfig holds the daily trigger time.
type ScheduleConfig struct {
	At       string `yaml:"at"       env:"VOCAB_SCHEDULE_AT"       env-default:"08:00"      validate:"datetime=15:04"`
	Timezone string `yaml:"timezone" env:"VOCAB_SCHEDULE_TIMEZONE" env-default:"Asia/Seoul" validate:"timezone"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"VOCAB_SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"VOCAB_SERVER_PORT" env-default:"8080" validate:"min=1,max=65535"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables
// run history.
type DatabaseConfig struct {
	URL      string `yaml:"url"       env:"VOCAB_DATABASE_URL"`
	MaxConns int    `yaml:"max_conns" env:"VOCAB_DATABASE_MAX_CONNS" env-default:"5" validate:"min=1"`
	MinConns int    `yaml:"min_conns" env:"VOCAB_DATABASE_MIN_CONNS" env-default:"1" validate:"min=0"`
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables the delivered-today marker.
type CacheConfig struct {
	URL       string        `yaml:"url"        env:"VOCAB_CACHE_URL"`
	MarkerTTL time.Duration `yaml:"marker_ttl" env:"VOCAB_CACHE_MARKER_TTL" env-default:"36h"`
}

// ArchiveConfig holds S3-compatible storage settings. An empty bucket
// disables archiving.
type ArchiveConfig struct {
	Bucket       string `yaml:"bucket"         env:"VOCAB_ARCHIVE_BUCKET"`
	Endpoint     string `yaml:"endpoint"       env:"VOCAB_ARCHIVE_ENDPOINT"       validate:"omitempty,url"`
	Region       string `yaml:"region"         env:"VOCAB_ARCHIVE_REGION"         env-default:"us-east-1"`
	AccessKey    string `yaml:"access_key"     env:"VOCAB_ARCHIVE_ACCESS_KEY"     validate:"required_with=Bucket"`
	SecretKey    string `yaml:"secret_key"     env:"VOCAB_ARCHIVE_SECRET_KEY"     validate:"required_with=Bucket"`
	Prefix       string `yaml:"prefix"         env:"VOCAB_ARCHIVE_PREFIX"         env-default:"exams/"`
	UsePathStyle bool   `yaml:"use_path_style" env:"VOCAB_ARCHIVE_USE_PATH_STYLE" env-default:"true"`
}

// AIConfig holds configuration for the word lookup providers.
type AIConfig struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Google     GoogleConfig     `yaml:"google"`
	DeepSeek   DeepSeekConfig   `yaml:"deepseek"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Ollama     OllamaConfig     `yaml:"ollama"`
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key" env:"VOCAB_AI_ANTHROPIC_API_KEY"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"VOCAB_AI_OPENAI_API_KEY"`
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string `yaml:"api_key" env:"VOCAB_AI_GOOGLE_API_KEY"`
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string `yaml:"api_key" env:"VOCAB_AI_DEEPSEEK_API_KEY"`
}

// OpenRouterConfig holds OpenRouter provider settings (OpenAI-compatible).
type OpenRouterConfig struct {
	APIKey string `yaml:"api_key" env:"VOCAB_AI_OPENROUTER_API_KEY"`
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled" env:"VOCAB_AI_OLLAMA_ENABLED" env-default:"false"`
	URL     string `yaml:"url"     env:"VOCAB_AI_OLLAMA_URL"     env-default:"http://localhost:11434" validate:"omitempty,url"`
}

// ReadingConfig controls the daily news reading material. Topic forces one
// topic instead of the daily rotation.
type ReadingConfig struct {
	Enabled    bool   `yaml:"enabled"      env:"VOCAB_READING_ENABLED"      env-default:"false"`
	NYTAPIKey  string `yaml:"nyt_api_key"  env:"VOCAB_READING_NYT_API_KEY"`
	NYTBaseURL string `yaml:"nyt_base_url" env:"VOCAB_READING_NYT_BASE_URL" validate:"omitempty,url"`
	Topic      string `yaml:"topic"        env:"VOCAB_READING_TOPIC"        validate:"omitempty,oneof=medical politics technology"`
	At         string `yaml:"at"           env:"VOCAB_READING_AT"           env-default:"07:30" validate:"datetime=15:04"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"VOCAB_LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"VOCAB_LOG_FORMAT" env-default:"json" validate:"oneof=json text"`
}

// Load reads configuration. Priority: ENV > YAML file > defaults. The file
// is read only when VOCAB_CONFIG_PATH is set, and must then exist.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("VOCAB_CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// SourceKind resolves the vocabulary source kind, inferring it from the
// path extension when unset.
func (c *Config) SourceKind() string {
	if c.Source.Kind != "" {
		return c.Source.Kind
	}
	if strings.HasSuffix(strings.ToLower(c.Source.Path), ".csv") {
		return "csv"
	}
	return "xlsx"
}
