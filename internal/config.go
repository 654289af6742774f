package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/roundup/internal/inbox"
	"github.com/starford/roundup/internal/normalize"
	"github.com/starford/roundup/internal/workflow"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Upload    UploadConfig      `yaml:"upload"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Normalize NormalizeConfig   `yaml:"normalize"`
	Parser    ParserConfig      `yaml:"parser"`
	Auth      AuthConfig        `yaml:"auth"`
	Metrics   MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.SQLite, &c.Upload, &c.Inbox, &c.Normalize, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UploadConfig bounds uploaded chat logs.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1)), validation.Max(int64(1<<30))),
	)
}

// InboxConfig controls drop-folder ingestion.
type InboxConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`
	ProcessedDir string `yaml:"processed_dir"`
	// AutoProcess cleans and parses every newly ingested document.
	AutoProcess bool `yaml:"auto_process"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	if c.ProcessedDir == "" {
		c.ProcessedDir = inbox.DefaultProcessedDir
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// NormalizeConfig holds the turn markers recognised by the cleaner.
type NormalizeConfig struct {
	UserMarker      string `yaml:"user_marker"`
	AssistantMarker string `yaml:"assistant_marker"`
	// CloseTurns closes the previous answer at every user marker after the
	// first, so multi-turn exports produce one round per exchange.
	CloseTurns bool `yaml:"close_turns"`
}

// Validate validates the normalize configuration.
func (c *NormalizeConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.UserMarker, validation.Required),
		validation.Field(&c.AssistantMarker, validation.Required),
	); err != nil {
		return err
	}
	if c.UserMarker == c.AssistantMarker {
		return fmt.Errorf("normalize: user and assistant markers must differ")
	}
	return nil
}

// Rules converts the configuration into normalization rules.
func (c *NormalizeConfig) Rules() normalize.Rules {
	return normalize.Rules{
		UserMarker:      c.UserMarker,
		AssistantMarker: c.AssistantMarker,
		CloseTurns:      c.CloseTurns,
	}
}

// ParserConfig controls round segmentation.
type ParserConfig struct {
	// LegacyFallback enables the heuristic splitter for untagged transcripts.
	LegacyFallback bool `yaml:"legacy_fallback"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./roundup.db",
		},
		Upload: UploadConfig{
			MaxBytes: workflow.DefaultMaxBytes,
		},
		Inbox: InboxConfig{
			Enabled:      false,
			Path:         "./inbox",
			ProcessedDir: inbox.DefaultProcessedDir,
		},
		Normalize: NormalizeConfig{
			UserMarker:      normalize.DefaultUserMarker,
			AssistantMarker: normalize.DefaultAssistantMarker,
			CloseTurns:      true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
