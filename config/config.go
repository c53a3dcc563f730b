// Package config holds the engine's runtime settings: search shape, data
// locations, and transport endpoints. Settings resolve from defaults, then
// an optional tetryon.yaml file, then TETRYON_ environment variables, then
// explicit key=value arguments, later sources winning.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	vp *viper.Viper
}

// Load resolves the settings. Arguments of the form key=value override
// everything; other argument words are left alone so a command line can
// carry both settings and commands. The special argument config=PATH names
// the settings file explicitly.
func (c *Config) Load(args []string) error {
	c.vp = viper.New()
	c.vp.SetEnvPrefix("tetryon")
	c.vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.vp.AutomaticEnv()

	c.vp.SetDefault("data-path", "./data")
	c.vp.SetDefault("default-preset", "medium")
	c.vp.SetDefault("board-width", 10)
	c.vp.SetDefault("board-height", 22)
	c.vp.SetDefault("beam-width", 16)
	c.vp.SetDefault("beam-depth", 4)
	c.vp.SetDefault("move-time-limit-ms", 100)
	c.vp.SetDefault("enable-diversity", true)
	c.vp.SetDefault("diversity-ratio", 0.25)
	c.vp.SetDefault("pattern-time-limit-ms", 500)
	c.vp.SetDefault("nats-url", "nats://127.0.0.1:4222")
	c.vp.SetDefault("game-log-path", "./data/gamelogs.db")
	c.vp.SetDefault("debug", false)
	c.vp.SetDefault("cpu-profile", "")
	c.vp.SetDefault("mem-profile", "")

	var cfgFile string
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		if k == "config" {
			cfgFile = v
			continue
		}
		c.vp.Set(k, v)
	}

	if cfgFile != "" {
		c.vp.SetConfigFile(cfgFile)
		if err := c.vp.ReadInConfig(); err != nil {
			return err
		}
	} else {
		c.vp.SetConfigName("tetryon")
		c.vp.SetConfigType("yaml")
		c.vp.AddConfigPath(".")
		c.vp.AddConfigPath("$HOME/.tetryon")
		if err := c.vp.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}
	log.Debug().Str("file", c.vp.ConfigFileUsed()).Msg("config-loaded")
	return nil
}

func (c *Config) GetString(key string) string   { return c.vp.GetString(key) }
func (c *Config) GetInt(key string) int         { return c.vp.GetInt(key) }
func (c *Config) GetBool(key string) bool       { return c.vp.GetBool(key) }
func (c *Config) GetFloat64(key string) float64 { return c.vp.GetFloat64(key) }

// Set overrides a setting for the rest of the process.
func (c *Config) Set(key string, value any) { c.vp.Set(key, value) }

// AllSettings returns the resolved settings tree.
func (c *Config) AllSettings() map[string]any { return c.vp.AllSettings() }

// SanitizedSettings renders the resolved settings for startup logging.
func (c *Config) SanitizedSettings() string {
	return fmt.Sprintf("%v", c.vp.AllSettings())
}

// AdjustRelativePaths roots relative file settings at the executable's
// directory so the binary finds its data no matter where it is launched
// from.
func (c *Config) AdjustRelativePaths(exPath string) {
	for _, key := range []string{"data-path", "game-log-path"} {
		v := c.vp.GetString(key)
		if v == "" || filepath.IsAbs(v) {
			continue
		}
		c.vp.Set(key, filepath.Join(exPath, v))
	}
}
