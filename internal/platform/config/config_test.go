package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets all VOCAB_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "VOCAB_") {
			_ = os.Unsetenv(key)
		}
	}
}

// requiredEnv sets the minimum variables for a valid config.
func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VOCAB_SOURCE_PATH", "words.xlsx")
	t.Setenv("VOCAB_DESTINATION_TOKEN", "123:abc")
	t.Setenv("VOCAB_DESTINATION_CHANNEL", "-100200300")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Destination.Kind != "telegram" {
		t.Errorf("Destination.Kind = %q, want telegram", cfg.Destination.Kind)
	}
	if cfg.Exam.Sample != 30 {
		t.Errorf("Exam.Sample = %d, want 30", cfg.Exam.Sample)
	}
	if cfg.Exam.Strict {
		t.Error("Exam.Strict = true, want false")
	}
	if !cfg.Exam.PeerDistractors {
		t.Error("Exam.PeerDistractors = false, want true")
	}
	if cfg.Delivery.Delay != 2*time.Second {
		t.Errorf("Delivery.Delay = %v, want 2s", cfg.Delivery.Delay)
	}
	if cfg.Delivery.Attempts != 3 {
		t.Errorf("Delivery.Attempts = %d, want 3", cfg.Delivery.Attempts)
	}
	if cfg.Delivery.RetryDelay != 5*time.Second {
		t.Errorf("Delivery.RetryDelay = %v, want 5s", cfg.Delivery.RetryDelay)
	}
	if cfg.Output.Dir != "./out" {
		t.Errorf("Output.Dir = %q, want ./out", cfg.Output.Dir)
	}
	if cfg.Schedule.At != "08:00" || cfg.Schedule.Timezone != "Asia/Seoul" {
		t.Errorf("Schedule = %+v, want 08:00 Asia/Seoul", cfg.Schedule)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.MarkerTTL != 36*time.Hour {
		t.Errorf("Cache.MarkerTTL = %v, want 36h", cfg.Cache.MarkerTTL)
	}
	if cfg.Archive.Prefix != "exams/" || !cfg.Archive.UsePathStyle {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if cfg.Reading.Enabled || cfg.Reading.At != "07:30" {
		t.Errorf("Reading = %+v, want disabled at 07:30", cfg.Reading)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	requiredEnv(t)
	t.Setenv("VOCAB_DESTINATION_KIND", "slack")
	t.Setenv("VOCAB_EXAM_SEED", "fixed")
	t.Setenv("VOCAB_EXAM_STRICT", "true")
	t.Setenv("VOCAB_EXAM_PEER_DISTRACTORS", "false")
	t.Setenv("VOCAB_DELIVERY_DELAY", "500ms")
	t.Setenv("VOCAB_SERVER_PORT", "9090")
	t.Setenv("VOCAB_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Path != "words.xlsx" {
		t.Errorf("Source.Path = %q", cfg.Source.Path)
	}
	if cfg.Destination.Kind != "slack" || cfg.Destination.Token != "123:abc" || cfg.Destination.Channel != "-100200300" {
		t.Errorf("Destination = %+v", cfg.Destination)
	}
	if cfg.Exam.Seed != "fixed" || !cfg.Exam.Strict || cfg.Exam.PeerDistractors {
		t.Errorf("Exam = %+v", cfg.Exam)
	}
	if cfg.Delivery.Delay != 500*time.Millisecond {
		t.Errorf("Delivery.Delay = %v, want 500ms", cfg.Delivery.Delay)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
source:
  path: words.csv
destination:
  kind: websocket
  token: secret
  channel: study-room
  url: ws://localhost:9000/ws
exam:
  sample: 40
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOCAB_CONFIG_PATH", path)
	t.Setenv("VOCAB_DESTINATION_CHANNEL", "override")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Path != "words.csv" || cfg.SourceKind() != "csv" {
		t.Errorf("Source = %+v kind %q", cfg.Source, cfg.SourceKind())
	}
	if cfg.Destination.Channel != "override" {
		t.Errorf("Destination.Channel = %q, env should win over file", cfg.Destination.Channel)
	}
	if cfg.Exam.Sample != 40 {
		t.Errorf("Exam.Sample = %d, want 40", cfg.Exam.Sample)
	}
	if cfg.Output.Dir != "./out" {
		t.Errorf("Output.Dir = %q, defaults should still apply", cfg.Output.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOCAB_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for a missing explicit config file")
	}
}

func TestValidate_EnumeratesMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	err = cfg.Validate()
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Validate() error = %v, want *ConfigurationError", err)
	}

	want := []string{"VOCAB_SOURCE_PATH", "VOCAB_DESTINATION_TOKEN", "VOCAB_DESTINATION_CHANNEL"}
	if !slices.Equal(cerr.Missing, want) {
		t.Errorf("Missing = %v, want %v", cerr.Missing, want)
	}
	for _, name := range want {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Error() = %q, want it to name %s", err.Error(), name)
		}
	}
}

func TestValidateLocal_SkipsDestination(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOCAB_SOURCE_PATH", "words.csv")
	t.Setenv("VOCAB_DESTINATION_KIND", "websocket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.ValidateLocal(); err != nil {
		t.Errorf("ValidateLocal() error = %v", err)
	}

	var cerr *ConfigurationError
	if err := cfg.Validate(); !errors.As(err, &cerr) {
		t.Fatalf("Validate() error = %v, want *ConfigurationError", err)
	}
	want := []string{"VOCAB_DESTINATION_TOKEN", "VOCAB_DESTINATION_CHANNEL", "VOCAB_DESTINATION_URL"}
	if !slices.Equal(cerr.Missing, want) {
		t.Errorf("Missing = %v, want %v", cerr.Missing, want)
	}

	t.Setenv("VOCAB_SOURCE_PATH", "")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.ValidateLocal(); !errors.As(err, &cerr) || !slices.Equal(cerr.Missing, []string{"VOCAB_SOURCE_PATH"}) {
		t.Errorf("ValidateLocal() error = %v, want only VOCAB_SOURCE_PATH missing", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantMissing []string
		wantInvalid string
	}{
		{
			name: "valid",
		},
		{
			name:        "unknown destination kind",
			env:         map[string]string{"VOCAB_DESTINATION_KIND": "fax"},
			wantInvalid: "VOCAB_DESTINATION_KIND",
		},
		{
			name:        "websocket needs url",
			env:         map[string]string{"VOCAB_DESTINATION_KIND": "websocket"},
			wantMissing: []string{"VOCAB_DESTINATION_URL"},
		},
		{
			name:        "postgres source needs database",
			env:         map[string]string{"VOCAB_SOURCE_KIND": "postgres", "VOCAB_SOURCE_PATH": "vocabulary"},
			wantMissing: []string{"VOCAB_DATABASE_URL"},
		},
		{
			name:        "archive bucket needs credentials",
			env:         map[string]string{"VOCAB_ARCHIVE_BUCKET": "exams"},
			wantMissing: []string{"VOCAB_ARCHIVE_ACCESS_KEY", "VOCAB_ARCHIVE_SECRET_KEY"},
		},
		{
			name:        "sample out of range",
			env:         map[string]string{"VOCAB_EXAM_SAMPLE": "5"},
			wantInvalid: "VOCAB_EXAM_SAMPLE",
		},
		{
			name:        "bad schedule time",
			env:         map[string]string{"VOCAB_SCHEDULE_AT": "25:99"},
			wantInvalid: "VOCAB_SCHEDULE_AT",
		},
		{
			name:        "bad timezone",
			env:         map[string]string{"VOCAB_SCHEDULE_TIMEZONE": "Mars/Olympus"},
			wantInvalid: "VOCAB_SCHEDULE_TIMEZONE",
		},
		{
			name:        "zero attempts",
			env:         map[string]string{"VOCAB_DELIVERY_ATTEMPTS": "0"},
			wantInvalid: "VOCAB_DELIVERY_ATTEMPTS",
		},
		{
			name: "reading enabled",
			env: map[string]string{
				"VOCAB_READING_ENABLED":     "true",
				"VOCAB_READING_NYT_API_KEY": "nyt-key",
				"VOCAB_AI_GOOGLE_API_KEY":   "g-key",
			},
		},
		{
			name:        "reading needs nyt key",
			env:         map[string]string{"VOCAB_READING_ENABLED": "true", "VOCAB_AI_OPENAI_API_KEY": "sk"},
			wantMissing: []string{"VOCAB_READING_NYT_API_KEY"},
		},
		{
			name:        "reading needs ai provider",
			env:         map[string]string{"VOCAB_READING_ENABLED": "true", "VOCAB_READING_NYT_API_KEY": "nyt-key"},
			wantInvalid: "VOCAB_READING_ENABLED",
		},
		{
			name:        "unknown reading topic",
			env:         map[string]string{"VOCAB_READING_TOPIC": "sports"},
			wantInvalid: "VOCAB_READING_TOPIC",
		},
		{
			name:        "bad reading time",
			env:         map[string]string{"VOCAB_READING_AT": "7pm"},
			wantInvalid: "VOCAB_READING_AT",
		},
		{
			name:        "bad log level",
			env:         map[string]string{"VOCAB_LOG_LEVEL": "verbose"},
			wantInvalid: "VOCAB_LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			requiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			err = cfg.Validate()

			if tt.wantMissing == nil && tt.wantInvalid == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() error = %v, want *ConfigurationError", err)
			}
			if tt.wantMissing != nil && !slices.Equal(cerr.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", cerr.Missing, tt.wantMissing)
			}
			if tt.wantInvalid != "" {
				found := false
				for _, msg := range cerr.Invalid {
					if strings.HasPrefix(msg, tt.wantInvalid) {
						found = true
					}
				}
				if !found {
					t.Errorf("Invalid = %v, want an entry for %s", cerr.Invalid, tt.wantInvalid)
				}
			}
		})
	}
}

func TestHasAIProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"none", Config{}, false},
		{"anthropic", Config{AI: AIConfig{Anthropic: AnthropicConfig{APIKey: "k"}}}, true},
		{"openai", Config{AI: AIConfig{OpenAI: OpenAIConfig{APIKey: "k"}}}, true},
		{"google", Config{AI: AIConfig{Google: GoogleConfig{APIKey: "k"}}}, true},
		{"ollama", Config{AI: AIConfig{Ollama: OllamaConfig{Enabled: true}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasAIProvider(); got != tt.want {
				t.Errorf("HasAIProvider() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceKind(t *testing.T) {
	tests := []struct {
		path, kind, want string
	}{
		{"words.xlsx", "", "xlsx"},
		{"Words.CSV", "", "csv"},
		{"vocabulary", "postgres", "postgres"},
	}
	for _, tt := range tests {
		cfg := Config{Source: SourceConfig{Path: tt.path, Kind: tt.kind}}
		if got := cfg.SourceKind(); got != tt.want {
			t.Errorf("SourceKind(%q, %q) = %q, want %q", tt.path, tt.kind, got, tt.want)
		}
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Schedule: ScheduleConfig{Timezone: "Asia/Seoul"}}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Asia/Seoul" {
		t.Errorf("Location() = %v", loc)
	}
}
