// Package config loads the command line configuration.
//
// Precedence (highest to lowest): changed flags > QUASISCF_* environment
// variables > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/njchilds90/quasiscf/dae"
)

const (
	// EnvPrefix marks the environment variables read by Load.
	EnvPrefix = "QUASISCF_"

	// DefaultFile is looked up in the working directory when no --config
	// flag is given.
	DefaultFile = "quasiscf.yaml"
)

// Output formats.
const (
	OutputText  = "text"
	OutputLaTeX = "latex"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ErrInvalid is returned for configuration values that fail validation.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all command line settings.
type Config struct {
	Output      string          `koanf:"output"`
	LogLevel    string          `koanf:"log_level"`
	Verbose     bool            `koanf:"verbose"`
	Workers     int             `koanf:"workers"`
	Orientation dae.Orientation `koanf:"orientation"`
	Projector   bool            `koanf:"projector"`
	Samples     []float64       `koanf:"samples"`
	Tolerance   float64         `koanf:"tolerance"`
	Addr        string          `koanf:"addr"`
	// Params overrides the numeric parameters of a pair, keyed by pair name.
	Params map[string]map[string]float64 `koanf:"params"`

	file string
}

// File returns the config file that was read, if any.
func (c *Config) File() string { return c.file }

// Level returns the slog level, Debug when Verbose is set.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func defaults() map[string]any {
	return map[string]any{
		"output":      OutputText,
		"log_level":   "warn",
		"verbose":     false,
		"workers":     runtime.NumCPU(),
		"orientation": "column",
		"projector":   false,
		"samples":     []float64{},
		"tolerance":   1e-9,
		"addr":        "localhost:8080",
	}
}

// Load reads the configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// QUASISCF_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				orientationHook,
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.file = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func orientationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(dae.Column) || from.Kind() != reflect.String {
		return data, nil
	}
	return dae.ParseOrientation(data.(string))
}

// Validate checks the decoded values.
func (c *Config) Validate() error {
	formats := []string{OutputText, OutputLaTeX, OutputJSON, OutputYAML}
	if !slices.Contains(formats, c.Output) {
		return fmt.Errorf("output %q, want one of %s: %w", c.Output, strings.Join(formats, "|"), ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers %d, want at least 1: %w", c.Workers, ErrInvalid)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance %g is negative: %w", c.Tolerance, ErrInvalid)
	}
	if c.Addr == "" {
		return fmt.Errorf("empty listen address: %w", ErrInvalid)
	}
	if !c.Verbose {
		var l slog.Level
		if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("log level %q: %w", c.LogLevel, ErrInvalid)
		}
	}
	return nil
}

// ParamsFor merges the overrides for name into base.
func (c *Config) ParamsFor(name string, base map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range c.Params[name] {
		out[k] = v
	}
	return out
}
