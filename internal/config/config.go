package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CommandConfig controls how the delegated essay command is built.
type CommandConfig struct {
	Python      string `yaml:"python"`
	ClaudeBin   string `yaml:"claude_bin"`
	SendCommand string `yaml:"send_command"`
	DefaultLang string `yaml:"default_lang"`
}

// ServerConfig holds settings for the optional HTTP and MCP servers.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Config holds all runtime configuration options.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Command CommandConfig `yaml:"command"`
	Server  ServerConfig  `yaml:"server"`

	// HistoryKeep is the number of journal events retained.
	HistoryKeep int `yaml:"history_keep"`

	// StateDir is the persistent directory; it is never read from config.yaml
	// because that file lives inside it.
	StateDir string `yaml:"-"`
}

const (
	defaultLogLevel      = "info"
	defaultLang          = "auto"
	defaultClaudeBin     = "claude"
	defaultAddr          = "127.0.0.1:7071"
	defaultHistoryKeep   = 200
	defaultShutdownGrace = 5 * time.Second

	configFileName = "config.yaml"
)

// Default returns the built-in configuration rooted at stateDir.
func Default(stateDir string) *Config {
	python := "python3"
	if runtime.GOOS == "windows" {
		python = "python"
	}
	return &Config{
		Log: LogConfig{Level: defaultLogLevel},
		Command: CommandConfig{
			Python:      python,
			ClaudeBin:   defaultClaudeBin,
			DefaultLang: defaultLang,
		},
		Server: ServerConfig{
			Addr:          defaultAddr,
			ShutdownGrace: defaultShutdownGrace,
		},
		HistoryKeep: defaultHistoryKeep,
		StateDir:    stateDir,
	}
}

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the environment variable as int or default
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Load builds the configuration. stateDir overrides the persistent directory
// when non-empty. Priority: environment > .env files > config.yaml > defaults;
// CLI flags are applied by the caller on top.
func Load(stateDir string) (*Config, error) {
	// .env files are optional; variables already set in the environment win.
	_ = godotenv.Load(".env")

	if stateDir == "" {
		stateDir = os.Getenv("ESSAY_HOME")
	}
	if stateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default state dir: %w", err)
		}
		stateDir = dir
	}
	_ = godotenv.Load(filepath.Join(stateDir, ".env"))

	cfg := Default(stateDir)
	if err := cfg.loadFile(filepath.Join(stateDir, configFileName)); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnvString("ESSAY_LOG_LEVEL", c.Log.Level)
	c.Command.Python = getEnvString("ESSAY_PYTHON", c.Command.Python)
	c.Command.ClaudeBin = getEnvString("ESSAY_CLAUDE_BIN", c.Command.ClaudeBin)
	c.Command.SendCommand = getEnvString("ESSAY_SEND_COMMAND", c.Command.SendCommand)
	c.Command.DefaultLang = getEnvString("ESSAY_DEFAULT_LANG", c.Command.DefaultLang)
	c.Server.Addr = getEnvString("ESSAY_HTTP_ADDR", c.Server.Addr)
	c.Server.ShutdownGrace = getEnvDuration("ESSAY_SHUTDOWN_GRACE", c.Server.ShutdownGrace)
	c.HistoryKeep = getEnvInt("ESSAY_HISTORY_KEEP", c.HistoryKeep)
}

func (c *Config) normalize() {
	if c.HistoryKeep < 1 {
		c.HistoryKeep = defaultHistoryKeep
	}
	if c.Server.ShutdownGrace <= 0 {
		c.Server.ShutdownGrace = defaultShutdownGrace
	}
	if strings.TrimSpace(c.Command.DefaultLang) == "" {
		c.Command.DefaultLang = defaultLang
	}
}

// Paths returns the path resolver for the configured state directory.
func (c *Config) Paths() *Paths {
	return NewPathsAt(c.StateDir)
}
