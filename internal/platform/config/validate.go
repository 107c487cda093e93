package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigurationError lists every missing or invalid setting by its
// environment variable name.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required configuration: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks the whole configuration, destination credentials
// included, and reports every problem at once as a *ConfigurationError.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateLocal is Validate for commands that never deliver: the destination
// token, channel and URL may be unset.
func (c *Config) ValidateLocal() error {
	return c.validate(false)
}

func (c *Config) validate(delivers bool) error {
	cerr := &ConfigurationError{}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating configuration: %w", err)
		}
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required", "required_with":
				cerr.Missing = append(cerr.Missing, fe.Field())
			default:
				cerr.Invalid = append(cerr.Invalid, describe(fe))
			}
		}
	}

	if delivers {
		if c.Destination.Token == "" {
			cerr.Missing = append(cerr.Missing, "VOCAB_DESTINATION_TOKEN")
		}
		if c.Destination.Channel == "" {
			cerr.Missing = append(cerr.Missing, "VOCAB_DESTINATION_CHANNEL")
		}
		if c.Destination.Kind == "websocket" && c.Destination.URL == "" {
			cerr.Missing = append(cerr.Missing, "VOCAB_DESTINATION_URL")
		}
	}
	if c.Reading.Enabled {
		if c.Reading.NYTAPIKey == "" {
			cerr.Missing = append(cerr.Missing, "VOCAB_READING_NYT_API_KEY")
		}
		if !c.HasAIProvider() {
			cerr.Invalid = append(cerr.Invalid, "VOCAB_READING_ENABLED requires an AI provider (one of VOCAB_AI_*_API_KEY or VOCAB_AI_OLLAMA_ENABLED)")
		}
	}
	if c.SourceKind() == "postgres" && c.Database.URL == "" {
		cerr.Missing = append(cerr.Missing, "VOCAB_DATABASE_URL")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("VOCAB_DATABASE_MIN_CONNS must not exceed VOCAB_DATABASE_MAX_CONNS (%d > %d)", c.Database.MinConns, c.Database.MaxConns))
	}

	if len(cerr.Missing) == 0 && len(cerr.Invalid) == 0 {
		return nil
	}
	return cerr
}

func describe(fe validator.FieldError) string {
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Sprintf("%s must satisfy %s (got %q)", fe.Field(), rule, fmt.Sprint(fe.Value()))
}
