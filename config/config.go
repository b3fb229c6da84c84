/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads storectl settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entityevents/errors"
)

// Supported backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config is the storectl configuration.
type Config struct {
	Backend    string         `yaml:"backend"`
	Repository string         `yaml:"repository"`
	SQLite     SQLiteConfig   `yaml:"sqlite"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
	Log        LogConfig      `yaml:"log"`
}

// SQLiteConfig locates the database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DynamoDBConfig carries the static credentials and the table.
type DynamoDBConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	PageSize  int32  `yaml:"page_size"`
}

// LogConfig selects the slog level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Backend: BackendMemory,
		SQLite:  SQLiteConfig{Path: "entities.db"},
		DynamoDB: DynamoDBConfig{
			PageSize: 100,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
// A .env file in the working directory is loaded when present; variables
// already set in the environment win over it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, name string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	set(&c.Backend, "STORECTL_BACKEND")
	set(&c.Repository, "STORECTL_REPOSITORY")
	set(&c.SQLite.Path, "STORECTL_SQLITE_PATH")
	set(&c.Log.Level, "STORECTL_LOG_LEVEL")
	set(&c.DynamoDB.AccessKey, "AWS_ACCESS_KEY")
	set(&c.DynamoDB.SecretKey, "AWS_SECRET_KEY")
	set(&c.DynamoDB.Region, "AWS_REGION")
	set(&c.DynamoDB.Table, "AWS_DDB_TABLE")
	c.Backend = strings.ToLower(c.Backend)
}

// Validate checks that the selected backend is fully configured.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.NewValidationError("sqlite.path", "required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Region == "" {
			return errors.NewValidationError("dynamodb.region", "required for the dynamodb backend")
		}
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("dynamodb.table", "required for the dynamodb backend")
		}
	default:
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	return nil
}
