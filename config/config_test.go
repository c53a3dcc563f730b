package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt("board-width"), 10)
	is.Equal(c.GetInt("board-height"), 22)
	is.Equal(c.GetInt("beam-width"), 16)
	is.Equal(c.GetString("default-preset"), "medium")
	is.Equal(c.GetBool("enable-diversity"), true)
	is.Equal(c.GetFloat64("diversity-ratio"), 0.25)
	is.Equal(c.GetBool("debug"), false)
}

func TestLoadKeyValueArgs(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	// command words pass through untouched
	is.NoErr(c.Load([]string{"beam-width=32", "autoplay", "debug=true"}))
	is.Equal(c.GetInt("beam-width"), 32)
	is.Equal(c.GetBool("debug"), true)
	is.Equal(c.GetInt("beam-depth"), 4)
}

func TestLoadEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("TETRYON_BEAM_DEPTH", "7")
	t.Setenv("TETRYON_DEFAULT_PRESET", "expert")
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt("beam-depth"), 7)
	is.Equal(c.GetString("default-preset"), "expert")
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "tetryon.yaml")
	is.NoErr(os.WriteFile(path, []byte("beam-width: 24\nnats-url: nats://example:4222\n"), 0o644))
	c := &Config{}
	is.NoErr(c.Load([]string{"config=" + path}))
	is.Equal(c.GetInt("beam-width"), 24)
	is.Equal(c.GetString("nats-url"), "nats://example:4222")

	is.True(c.Load([]string{"config=" + path + ".missing"}) != nil)
}

func TestSetOverrides(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load(nil))
	c.Set("beam-width", 48)
	is.Equal(c.GetInt("beam-width"), 48)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load([]string{"data-path=./data", "game-log-path=/var/log/games.db"}))
	c.AdjustRelativePaths("/opt/tetryon")
	is.Equal(c.GetString("data-path"), filepath.Join("/opt/tetryon", "data"))
	// absolute paths stay put
	is.Equal(c.GetString("game-log-path"), "/var/log/games.db")
}
