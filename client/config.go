package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"gopkg.in/yaml.v3"
)

// Config is the declarative form of the client options, loadable from a
// YAML file with [LoadConfig] or from the environment with [ConfigFromEnv].
type Config struct {
	BaseURL           string            `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Timeout           time.Duration     `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
	UserAgent         string            `yaml:"user_agent" env:"USER_AGENT"`
	Headers           map[string]string `yaml:"headers" env:"HEADERS" validate:"omitempty,dive,keys,required,endkeys"`
	RPS               int               `yaml:"rps" env:"RPS" validate:"gte=0"`
	Burst             int               `yaml:"burst" env:"BURST" validate:"required_with=RPS,gte=0"`
	NoFollowRedirects bool              `yaml:"no_follow_redirects" env:"NO_FOLLOW_REDIRECTS"`
	RequestIDHeader   string            `yaml:"request_id_header" env:"REQUEST_ID_HEADER"`
	OwnTransport      bool              `yaml:"own_transport" env:"OWN_TRANSPORT"`
}

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Validate checks the config against its declared tags. Failures are
// returned as [FieldErrors].
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}
		return fields
	}

	return nil
}

// Options translates the config into client options.
func (c Config) Options() []Option {
	var opts []Option

	if c.BaseURL != "" {
		opts = append(opts, WithBaseURL(c.BaseURL))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}
	if c.UserAgent != "" {
		opts = append(opts, WithUserAgent(c.UserAgent))
	}
	for k, v := range c.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	if c.RPS > 0 {
		opts = append(opts, WithThrottle(c.RPS, c.Burst))
	}
	if c.NoFollowRedirects {
		opts = append(opts, WithNoFollowRedirects())
	}
	if c.RequestIDHeader != "" {
		opts = append(opts, WithRequestID(c.RequestIDHeader))
	}
	if c.OwnTransport {
		opts = append(opts, WithOwnedTransport())
	}

	return opts
}

// BuildFromConfig validates cfg and builds a Client from it. Options in
// optFns are applied after those derived from cfg.
func BuildFromConfig(cfg Config, optFns ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return Build(append(cfg.Options(), optFns...)...)
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// ConfigFromEnv reads a config from environment variables named with
// prefix, e.g. prefix "API_" reads API_BASE_URL and API_TIMEOUT.
// Headers use the form "Key:Value,Other:Value".
func ConfigFromEnv(prefix string) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating environment config: %w", err)
	}

	return cfg, nil
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required", "required_with":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}
