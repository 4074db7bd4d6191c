// Package config loads service settings from built-in defaults, an optional
// .env file and EQUI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before mapping them
// onto config keys: EQUI_SERVER_PORT -> server.port.
const EnvPrefix = "EQUI_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Images   ImagesConfig   `koanf:"images"`
	Backend  BackendConfig  `koanf:"backend"`
	Table    TableConfig    `koanf:"table"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port           string   `koanf:"port" validate:"required,numeric"`
	StaticDir      string   `koanf:"static_dir"`
	AllowedOrigins []string `koanf:"allowed_origins" validate:"min=1"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type ImagesConfig struct {
	// Policy is "cached" or "uncached".
	Policy string        `koanf:"policy" validate:"oneof=cached uncached"`
	TTL    time.Duration `koanf:"ttl" validate:"gt=0"`
}

// BackendConfig points at the hosted backend. An empty URL means the local
// SQLite store serves images and feedback.
type BackendConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type TableConfig struct {
	PageSize int `koanf:"page_size" validate:"min=1,max=500"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			StaticDir:      "../frontend/dist",
			AllowedOrigins: []string{"http://localhost:*", "https://*.equicenter.app"},
		},
		Database: DatabaseConfig{Path: "./equicenter.db"},
		Images: ImagesConfig{
			Policy: "cached",
			TTL:    5 * time.Minute,
		},
		Backend: BackendConfig{Timeout: 10 * time.Second},
		Table:   TableConfig{PageSize: 10},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration. envFiles are read with godotenv first and
// never override variables already set in the process environment; missing
// files are skipped.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tag constraints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// transformEnv maps EQUI_IMAGES_TTL onto images.ttl. The first segment after
// the prefix is the section; the rest is the field name with underscores kept.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	if len(parts) < 2 {
		return "", nil
	}
	return parts[0] + "." + strings.Join(parts[1:], "_"), value
}
