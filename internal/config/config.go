// Package config loads runtime configuration from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server       ServerConfig     `koanf:"server"`
	Upstream     UpstreamConfig   `koanf:"upstream"`
	Validation   ValidationConfig `koanf:"validation"`
	Capabilities []string         `koanf:"capabilities"`
}

type ServerConfig struct {
	Port        int    `koanf:"port"`
	Host        string `koanf:"host"`
	Debug       bool   `koanf:"debug"`
	Environment string `koanf:"environment"`
}

type UpstreamConfig struct {
	// TokenCache enables expiry-aware token reuse across requests.
	TokenCache bool `koanf:"token_cache"`
	// MaxRetries bounds retry-with-backoff on transport failures; zero
	// preserves the no-retry baseline.
	MaxRetries int `koanf:"max_retries"`
}

type ValidationConfig struct {
	// PlatePolicy selects the plate length policy: "strict" (6-7
	// alphanumeric) or "lenient" (3-10).
	PlatePolicy string `koanf:"plate_policy"`
}

// legacyEnvKeys maps the historical unprefixed variables onto config
// keys. Anything else without the CONSULTA_ prefix is ignored.
var legacyEnvKeys = map[string]string{
	"PORT":        "server.port",
	"HOST":        "server.host",
	"DEBUG":       "server.debug",
	"ENVIRONMENT": "server.environment",
}

// Load reads configuration in increasing precedence: the YAML file at
// path (if it exists), CONSULTA_-prefixed environment variables, then
// the legacy unprefixed PORT/HOST/DEBUG/ENVIRONMENT variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	// CONSULTA_SERVER__PORT -> server.port
	if err := k.Load(env.Provider("CONSULTA_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CONSULTA_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnvKeys[s]
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.host") {
		k.Set("server.host", "0.0.0.0")
	}
	if !k.Exists("server.environment") {
		k.Set("server.environment", "development")
	}
	if !k.Exists("validation.plate_policy") {
		k.Set("validation.plate_policy", "strict")
	}
	if !k.Exists("capabilities") {
		k.Set("capabilities", []string{"vehiculo", "cliente"})
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
