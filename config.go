package ti3d

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config carries runtime tunables for an editor session. All fields have
// working defaults; a config file only overrides what it names.
type Config struct {
	// Capacity preallocates the store's columns for this many entities.
	Capacity int `toml:"capacity"`
	// TickRate is the simulation step interval used by interactive hosts.
	TickRate time.Duration `toml:"tick_rate"`
	// CompileDebounce is how long hosts wait after the last graph edit before
	// recompiling the plan.
	CompileDebounce time.Duration `toml:"compile_debounce"`
	// Scripts enables the Lua script host and the "Script" node kind.
	Scripts bool `toml:"scripts"`

	Logging LoggingConfig `toml:"logging"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:        1024,
		TickRate:        time.Second / 60,
		CompileDebounce: 150 * time.Millisecond,
		Scripts:         true,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a TOML config file, layered over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields so a hand-built Config{} behaves.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	if c.CompileDebounce <= 0 {
		c.CompileDebounce = d.CompileDebounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// NewLogger builds a zap logger from the logging config. Unknown levels fall
// back to info.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
