package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DSNEnv = "OSSECTAIL_DSN"

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Tail       TailConfig       `yaml:"tail"`
	Parser     ParserConfig     `yaml:"parser"`
	Storage    StorageConfig    `yaml:"storage"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Publish    PublishConfig    `yaml:"publish"`
	API        APIConfig        `yaml:"api"`
	Alerts     AlertsConfig     `yaml:"alerts"`
}

type TailConfig struct {
	Path       string        `yaml:"path"`
	StartAtEnd bool          `yaml:"start_at_end"`
	MinDelay   time.Duration `yaml:"min_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Step       time.Duration `yaml:"step"`
}

type ParserConfig struct {
	Timezone      string `yaml:"timezone"`
	ConcatMessage bool   `yaml:"concat_message"`
}

type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	InitSchema   bool   `yaml:"init_schema"`
	ResolveHosts bool   `yaml:"resolve_hosts"`
	// TimeZone is the zone alert dates are written in for drivers whose
	// date column carries no zone (mysql DATETIME). Defaults to
	// parser.timezone, the wall time HECTOR has always stored.
	TimeZone string `yaml:"time_zone"`
}

type SupervisorConfig struct {
	RestartDelay time.Duration `yaml:"restart_delay"`
}

type PublishConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type AlertsConfig struct {
	StoreLimit int `yaml:"store_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Tail: TailConfig{
			Path:       "/var/ossec/logs/alerts/alerts.log",
			StartAtEnd: true,
			MinDelay:   10 * time.Millisecond,
			MaxDelay:   1 * time.Second,
			Step:       10 * time.Millisecond,
		},
		Parser: ParserConfig{Timezone: "Local"},
		Storage: StorageConfig{
			Driver:     "mysql",
			DSN:        "root@tcp(localhost:3306)/hector?parseTime=true",
			InitSchema: true,
		},
		Supervisor: SupervisorConfig{RestartDelay: 5 * time.Second},
		API:        APIConfig{Enabled: false, Addr: "127.0.0.1:8086"},
		Alerts:     AlertsConfig{StoreLimit: 1000},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault returns the defaults when no path is given.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		cfg := DefaultConfig()
		applyEnv(cfg)
		applyDefaults(cfg)
		return cfg, Validate(cfg)
	}
	return Load(ResolvePath(path))
}

func applyEnv(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv(DSNEnv)); dsn != "" {
		cfg.Storage.DSN = dsn
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tail.MinDelay <= 0 {
		cfg.Tail.MinDelay = 10 * time.Millisecond
	}
	if cfg.Tail.MaxDelay <= 0 {
		cfg.Tail.MaxDelay = 1 * time.Second
	}
	if cfg.Tail.Step <= 0 {
		cfg.Tail.Step = 10 * time.Millisecond
	}
	if cfg.Supervisor.RestartDelay <= 0 {
		cfg.Supervisor.RestartDelay = 5 * time.Second
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 1000
	}
	if cfg.Parser.Timezone == "" {
		cfg.Parser.Timezone = "Local"
	}
	if cfg.Storage.TimeZone == "" {
		cfg.Storage.TimeZone = cfg.Parser.Timezone
	}
}

func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Tail.Path) == "" {
		return errors.New("tail.path required")
	}
	if cfg.Tail.MinDelay > cfg.Tail.MaxDelay {
		return fmt.Errorf("tail.min_delay (%s) exceeds tail.max_delay (%s)", cfg.Tail.MinDelay, cfg.Tail.MaxDelay)
	}
	switch strings.ToLower(cfg.Storage.Driver) {
	case "mysql", "postgres", "postgresql", "sqlite":
	default:
		return fmt.Errorf("unsupported storage.driver: %q", cfg.Storage.Driver)
	}
	if cfg.Publish.Kafka.Enabled {
		if len(cfg.Publish.Kafka.Brokers) == 0 || cfg.Publish.Kafka.Topic == "" {
			return errors.New("publish.kafka requires brokers and topic")
		}
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	return nil
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
