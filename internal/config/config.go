// Package config loads unitconv settings from flags, UNITCONV_* environment
// variables and an optional .unitconv.yaml file, in that order of
// precedence.
//
// The same file may carry a units: section with custom unit definitions;
// see [UnitsConfig].
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/convertkit/unitconv/internal/rates"
)

// Log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultRatesRPS is the request rate allowed against the rate service.
const DefaultRatesRPS = 5.0

const (
	envPrefix      = "UNITCONV"
	fileName       = ".unitconv"
	userConfigPath = ".config/unitconv"
)

// Config holds the settings shared by every command.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat is text or json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet raises the log level to error.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// RatesURL is the Frankfurter-compatible rate service. Ignored when
	// RatesFile is set.
	RatesURL string `mapstructure:"rates-url" json:"ratesUrl"`

	// RatesFile is a YAML rate snapshot served instead of the rate service.
	RatesFile string `mapstructure:"rates-file" json:"ratesFile,omitempty"`

	// RatesTimeout bounds one currency conversion round-trip.
	RatesTimeout time.Duration `mapstructure:"rates-timeout" json:"ratesTimeout"`

	// RatesTTL is how long fetched rates are reused. Zero disables caching.
	RatesTTL time.Duration `mapstructure:"rates-ttl" json:"ratesTtl"`

	// RatesRPS caps requests per second against the rate service.
	RatesRPS float64 `mapstructure:"rates-rps" json:"ratesRps"`

	// HistoryDB is the SQLite history database. Empty keeps history in
	// memory for the lifetime of the process.
	HistoryDB string `mapstructure:"history-db" json:"historyDb,omitempty"`

	// ConfigFile is the file Load read, if any.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:     LogLevelInfo,
		LogFormat:    LogFormatText,
		RatesURL:     rates.DefaultURL,
		RatesTimeout: rates.DefaultTimeout,
		RatesTTL:     rates.DefaultTTL,
		RatesRPS:     DefaultRatesRPS,
	}
}

// settings lists every viper key with its value in c. Load registers the
// values of Default() as viper defaults through it.
func (c *Config) settings() map[string]any {
	return map[string]any{
		"log-level":     c.LogLevel,
		"log-format":    c.LogFormat,
		"no-color":      c.NoColor,
		"quiet":         c.Quiet,
		"rates-url":     c.RatesURL,
		"rates-file":    c.RatesFile,
		"rates-timeout": c.RatesTimeout,
		"rates-ttl":     c.RatesTTL,
		"rates-rps":     c.RatesRPS,
		"history-db":    c.HistoryDB,
	}
}

// UsesRatesFile reports whether currency rates come from a snapshot file
// rather than the rate service.
func (c *Config) UsesRatesFile() bool {
	return c.RatesFile != ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat))
	}

	return errors.Join(append(errs, c.validateRates()...)...)
}

func (c *Config) validateRates() []error {
	var errs []error

	if c.RatesTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid rates timeout %s: must be positive", c.RatesTimeout))
	}

	if c.RatesTTL < 0 {
		errs = append(errs, fmt.Errorf("invalid rates ttl %s: must not be negative", c.RatesTTL))
	}

	if c.RatesRPS <= 0 {
		errs = append(errs, fmt.Errorf("invalid rates rps %g: must be positive", c.RatesRPS))
	}

	if !c.UsesRatesFile() {
		if err := validateURL(c.RatesURL); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid rates url %q: %w", raw, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid rates url %q: must be an absolute http or https URL", raw)
	}

	return nil
}

// EffectiveLogLevel is LogLevel, or error when Quiet is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load resolves the configuration for cmd. configFile, when set, must
// exist; otherwise .unitconv.yaml is looked up in the working directory and
// in ~/.config/unitconv. Each call uses its own viper instance.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range Default().settings() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, userConfigPath))
	}

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("parsing config file: %w", err)
}

// bindFlags binds cmd's local flags and the persistent flags of cmd and
// every ancestor.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

type (
	ctxKey     struct{}
	ctxFileKey struct{}
)

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config in ctx, or Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}

// NewContextWithConfigFile returns a child context carrying the path of the
// config file, so custom units can be read from the same file.
func NewContextWithConfigFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxFileKey{}, path)
}

// ConfigFileFromContext returns the config file path in ctx, or "".
func ConfigFileFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(ctxFileKey{}).(string); ok {
		return p
	}

	return ""
}
