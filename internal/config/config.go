package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

const (
	DefaultListen         = ":8080"
	DefaultCommandTimeout = 10 * time.Second
	DefaultTokenTTL       = 12 * time.Hour
)

type Config struct {
	Listen   string `yaml:"listen"`
	HostRoot string `yaml:"host_root"`
	LogDir   string `yaml:"log_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
	// DBDir holds makedb databases; detected from os-release when empty.
	DBDir          string              `yaml:"db_dir,omitempty"`
	Sudo           sysexec.SudoOptions `yaml:"sudo"`
	CommandTimeout time.Duration       `yaml:"command_timeout"`
	TokenTTL       time.Duration       `yaml:"token_ttl"`
	JWTSecret      string              `yaml:"jwt_secret,omitempty"`
	// Notice is markdown shown on the status page.
	Notice    string          `yaml:"notice,omitempty"`
	Databases []database.Spec `yaml:"databases"`
}

func Default() Config {
	return Config{
		Listen:         DefaultListen,
		CommandTimeout: DefaultCommandTimeout,
		TokenTTL:       DefaultTokenTTL,
		LogLevel:       "info",
		Databases:      database.DefaultSpecs(),
	}
}

// WithDefaults fills every zero field from Default. An explicitly empty
// database list stays empty only when the key is present as [].
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = d.CommandTimeout
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = d.TokenTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Databases == nil {
		c.Databases = d.Databases
	}
	return c
}

func (c Config) Validate() error {
	names := map[string]bool{}
	for i, s := range c.Databases {
		full, err := s.WithDefaults(orDir(c.DBDir))
		if err != nil {
			return fmt.Errorf("databases[%d]: %w", i, err)
		}
		if names[full.Name] {
			return fmt.Errorf("databases[%d]: duplicate name %q", i, full.Name)
		}
		names[full.Name] = true
	}
	return nil
}

func orDir(dir string) string {
	if dir == "" {
		return "/var/lib/misc"
	}
	return dir
}

// Store reads and writes the YAML configuration file.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func DefaultPath() string {
	return filepath.Join("/etcapi_data", "config.yaml")
}

func (s *Store) Path() string { return s.path }

// Ensure writes the default configuration when the file does not exist.
func (s *Store) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.saveLocked(Default())
		}
		return err
	}
	return nil
}

// Load returns the stored configuration with defaults applied. A missing or
// empty file yields Default().
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	if len(b) == 0 {
		return Default(), nil
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

func (s *Store) saveLocked(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
