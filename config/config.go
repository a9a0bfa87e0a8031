package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the file
const (
	EnvDSN        = "DBENFORCE_DSN"
	EnvTransport  = "DBENFORCE_TRANSPORT"
	EnvLogLevel   = "DBENFORCE_LOG_LEVEL"
	EnvHistoryDSN = "DBENFORCE_HISTORY_DSN"
	EnvPassword   = "DBENFORCE_CLI_PASSWORD"
)

const (
	TransportSQL = "sql"
	TransportCLI = "cli"
)

// Config is the tool configuration, read from an optional TOML file.
type Config struct {
	Transport           string        `toml:"transport"` // sql|cli
	DSN                 string        `toml:"dsn"`
	Manifest            string        `toml:"manifest"`
	PasswordColumn      string        `toml:"password_column"`
	StatementsPerSecond float64       `toml:"statements_per_second"`
	CLI                 CLIConfig     `toml:"cli"`
	Log                 LogConfig     `toml:"log"`
	History             HistoryConfig `toml:"history"`
}

// CLIConfig addresses the server for the mysql command-line transport
type CLIConfig struct {
	Binary   string `toml:"binary"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

type HistoryConfig struct {
	Type    string   `toml:"type"` // none|postgres|sqlite|kafka
	DSN     string   `toml:"dsn"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Transport:      TransportSQL,
		Manifest:       "manifest.yaml",
		PasswordColumn: "Password",
		CLI:            CLIConfig{Binary: "mysql", Host: "localhost", Port: 3306, User: "root"},
		Log:            LogConfig{Level: "info"},
		History:        HistoryConfig{Type: "none", Topic: "dbenforce.applies"},
	}
}

// Load reads path (when not empty) over the defaults, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, so callers can apply flag overrides first
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDSN); v != "" {
		c.DSN = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.CLI.Password = v
	}
}

func (c *Config) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case TransportSQL:
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for the sql transport (set it in the config or %s)", EnvDSN)
		}
	case TransportCLI:
		if c.CLI.Binary == "" {
			c.CLI.Binary = "mysql"
		}
	default:
		return fmt.Errorf("transport must be one of: sql, cli")
	}

	if c.PasswordColumn == "" {
		c.PasswordColumn = "Password"
	}
	if c.StatementsPerSecond < 0 {
		return fmt.Errorf("statements_per_second must be >= 0")
	}

	c.History.Type = strings.ToLower(strings.TrimSpace(c.History.Type))
	switch c.History.Type {
	case "", "none":
		c.History.Type = "none"
	case "postgres", "sqlite":
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for history type %s", c.History.Type)
		}
	case "kafka":
		if len(c.History.Brokers) == 0 {
			return fmt.Errorf("history.brokers is required for history type kafka")
		}
	default:
		return fmt.Errorf("history.type must be one of: none, postgres, sqlite, kafka")
	}
	return nil
}
