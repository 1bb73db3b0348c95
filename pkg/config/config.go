// Package config loads encoder settings from files, the environment and
// host-supplied key/value maps.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/thesyncim/hwenc/pkg/codec"
)

// EnvPrefix prefixes environment overrides, e.g. HWENC_BITRATE.
const EnvPrefix = "HWENC"

// Config is the encoder configuration: which codec identity to run and the
// settings it is created with.
type Config struct {
	Codec          string `mapstructure:"codec"`
	codec.Settings `mapstructure:",squash"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Codec:    codec.H264.Codec(),
		Settings: codec.DefaultSettings(),
	}
}

// Type returns the configured codec identity.
func (c *Config) Type() (codec.Type, error) {
	t, ok := codec.ParseType(c.Codec)
	if !ok {
		return 0, fmt.Errorf("unknown codec %q", c.Codec)
	}
	return t, nil
}

// Validate checks the codec and the settings ranges.
func (c *Config) Validate() error {
	t, err := c.Type()
	if err != nil {
		return err
	}
	return c.Settings.Validate(t)
}

func newViper(env bool) *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault("codec", def.Codec)
	v.SetDefault("rate_control", def.Settings.RateControl)
	v.SetDefault("bitrate", def.Settings.Bitrate)
	v.SetDefault("cqp", def.Settings.CQP)
	v.SetDefault("keyint_sec", def.Settings.KeyintSec)
	v.SetDefault("preset", def.Settings.Preset)
	v.SetDefault("profile", def.Settings.Profile)

	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.AutomaticEnv()
	}
	return v
}

// Load reads cfgFile, or hwenc.{yaml,json,toml} from the config directory
// or the working directory when cfgFile is empty, applies environment
// overrides and validates the result. A missing default file is not an
// error.
func Load(cfgFile string) (*Config, error) {
	v := newViper(true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("hwenc")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap decodes host-supplied settings. Missing keys take their defaults;
// values are not range checked, matching what a session accepts. The
// environment is not consulted.
func FromMap(m map[string]any) (codec.Settings, error) {
	v := newViper(false)
	if err := v.MergeConfigMap(m); err != nil {
		return codec.Settings{}, err
	}

	var s codec.Settings
	if err := v.Unmarshal(&s); err != nil {
		return codec.Settings{}, err
	}
	return s, nil
}

// Save writes cfg to cfgFile; the format follows the file extension.
func Save(cfg *Config, cfgFile string) error {
	v := viper.New()
	v.Set("codec", cfg.Codec)
	v.Set("rate_control", cfg.Settings.RateControl)
	v.Set("bitrate", cfg.Settings.Bitrate)
	v.Set("cqp", cfg.Settings.CQP)
	v.Set("keyint_sec", cfg.Settings.KeyintSec)
	v.Set("preset", cfg.Settings.Preset)
	v.Set("profile", cfg.Settings.Profile)

	if dir := filepath.Dir(cfgFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(cfgFile)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "hwenc")
	case "darwin":
		return "/Library/Application Support/hwenc"
	default:
		return "/etc/hwenc"
	}
}
