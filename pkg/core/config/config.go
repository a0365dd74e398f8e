// ============================================================================
// lexana - LL(1) expression front end
// ============================================================================
//
// Package:     config
// Description: Application configuration loaded from TOML or YAML files
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	mdwlog "github.com/msto63/lexana/foundation/core/log"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "LEXANA_CONFIG"

// ErrNoConfig is returned by LoadFromEnv when no config file was found
var ErrNoConfig = errors.New("no config file found")

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Lexer   LexerConfig   `toml:"lexer" yaml:"lexer"`
	Parser  ParserConfig  `toml:"parser" yaml:"parser"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFormat   string `toml:"log_format" yaml:"log_format"`
}

// LexerConfig holds tokenizer settings
type LexerConfig struct {
	NormalizeNFC   bool     `toml:"normalize_nfc" yaml:"normalize_nfc"`
	MaxInputLength int      `toml:"max_input_length" yaml:"max_input_length"`
	MatchTimeout   Duration `toml:"match_timeout" yaml:"match_timeout"`
}

// ParserConfig holds parser settings
type ParserConfig struct {
	// AllowTrailing accepts input with tokens left after the expression
	AllowTrailing bool `toml:"allow_trailing" yaml:"allow_trailing"`
}

// HistoryConfig holds settings of the analysis history database
type HistoryConfig struct {
	Enabled   bool     `toml:"enabled" yaml:"enabled"`
	Path      string   `toml:"path" yaml:"path"`
	Retention Duration `toml:"retention" yaml:"retention"`
}

// CacheConfig holds settings of the in-memory analysis cache
type CacheConfig struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	MaxItems int      `toml:"max_items" yaml:"max_items"`
	TTL      Duration `toml:"ttl" yaml:"ttl"`
}

// ServerConfig holds HTTP and gRPC server settings
type ServerConfig struct {
	Host             string   `toml:"host" yaml:"host"`
	HTTPPort         int      `toml:"http_port" yaml:"http_port"`
	GRPCPort         int      `toml:"grpc_port" yaml:"grpc_port"`
	ReadTimeout      Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     Duration `toml:"write_timeout" yaml:"write_timeout"`
	EnableReflection bool     `toml:"enable_reflection" yaml:"enable_reflection"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := base()
	cfg.applyDefaults()
	return cfg
}

// base returns the boolean settings that default to true; zero values of
// all other fields are filled by applyDefaults
func base() *Config {
	return &Config{
		History: HistoryConfig{Enabled: true},
		Cache:   CacheConfig{Enabled: true},
		Server:  ServerConfig{EnableReflection: true},
	}
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mdwerror.Wrap(err, "config file not found").
				WithCode(mdwerror.CodeConfigError).
				WithDetail("path", path)
		}
		return nil, mdwerror.Wrap(err, "failed to read config").
			WithCode(mdwerror.CodeConfigError).
			WithDetail("path", path)
	}

	cfg := base()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml", "":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, mdwerror.Newf("unsupported config format: %s", filepath.Ext(path)).
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config").
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("path", path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from the LEXANA_CONFIG environment
// variable or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("%w: set %s or create configs/config.toml", ErrNoConfig, EnvConfigPath)
	}
	return Load(path)
}

// DefaultPaths returns the locations searched by LoadFromEnv
func DefaultPaths() []string {
	return []string{
		"./configs/config.toml",
		"./configs/config.yaml",
		"./config.toml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/lexana/config.toml"),
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "lexana"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Lexer
	if c.Lexer.MaxInputLength == 0 {
		c.Lexer.MaxInputLength = 4096
	}
	if c.Lexer.MatchTimeout.Duration == 0 {
		c.Lexer.MatchTimeout.Duration = 100 * time.Millisecond
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "history.db")
	}
	if c.History.Retention.Duration == 0 {
		c.History.Retention.Duration = 30 * 24 * time.Hour
	}

	// Cache
	if c.Cache.MaxItems == 0 {
		c.Cache.MaxItems = 1024
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = 10 * time.Minute
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8480
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9480
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if _, err := mdwlog.ParseLevel(c.General.LogLevel); err != nil {
		return mdwerror.Wrap(err, "invalid general.log_level").WithCode(mdwerror.CodeInvalidConfig)
	}
	if _, err := mdwlog.ParseFormat(c.General.LogFormat); err != nil {
		return mdwerror.Wrap(err, "invalid general.log_format").WithCode(mdwerror.CodeInvalidConfig)
	}
	if c.Lexer.MaxInputLength < 0 {
		return mdwerror.Newf("lexer.max_input_length must not be negative: %d", c.Lexer.MaxInputLength).
			WithCode(mdwerror.CodeInvalidConfig)
	}
	if c.Cache.MaxItems < 0 {
		return mdwerror.Newf("cache.max_items must not be negative: %d", c.Cache.MaxItems).
			WithCode(mdwerror.CodeInvalidConfig)
	}
	for name, port := range map[string]int{"server.http_port": c.Server.HTTPPort, "server.grpc_port": c.Server.GRPCPort} {
		if port < 1 || port > 65535 {
			return mdwerror.Newf("%s out of range: %d", name, port).WithCode(mdwerror.CodeInvalidConfig)
		}
	}
	return nil
}

// HTTPAddress returns the listen address of the HTTP server
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GRPCAddress returns the listen address of the gRPC server
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
