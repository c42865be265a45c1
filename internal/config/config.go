package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/loykin/botctl/internal/logger"
	"github.com/spf13/viper"
)

// Config is the supervisor's TOML configuration. Zero values are filled
// with defaults matching the conventional bot layout: bot.py next to
// requirements.txt, a venv/ directory, bot.pid and bot.log.
type Config struct {
	Name        string        `toml:"name" mapstructure:"name"`
	Script      string        `toml:"script" mapstructure:"script"`
	Args        []string      `toml:"args" mapstructure:"args"`
	WorkDir     string        `toml:"workdir" mapstructure:"workdir"`
	Env         []string      `toml:"env" mapstructure:"env"`
	EnvFiles    []string      `toml:"env_files" mapstructure:"env_files"`
	PIDFile     string        `toml:"pidfile" mapstructure:"pidfile"`
	VenvDir     string        `toml:"venv_dir" mapstructure:"venv_dir"`
	Manifest    string        `toml:"requirements" mapstructure:"requirements"`
	Python      string        `toml:"python" mapstructure:"python"`
	ProbeModule string        `toml:"probe_module" mapstructure:"probe_module"`
	StopGrace   time.Duration `toml:"stop_grace" mapstructure:"stop_grace"`
	LogFile     string        `toml:"log_file" mapstructure:"log_file"`
	Log         logger.Config `toml:"log" mapstructure:"log"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "bot"
	}
	if c.Script == "" {
		c.Script = "bot.py"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.PIDFile == "" {
		c.PIDFile = "bot.pid"
	}
	if c.VenvDir == "" {
		c.VenvDir = "venv"
	}
	if c.Manifest == "" {
		c.Manifest = "requirements.txt"
	}
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.ProbeModule == "" {
		c.ProbeModule = "aiogram"
	}
	if c.StopGrace <= 0 {
		c.StopGrace = 5 * time.Second
	}
	if c.LogFile == "" {
		c.LogFile = "bot.log"
	}
}

// Resolve returns p joined under the configured workdir unless absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

// Load reads a TOML config file and fills defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}
