package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is loaded from an optional YAML file and finished with environment
// overrides, so containerized deployments can run without a file at all.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Board    Board    `yaml:"board"`
}

type Server struct {
	// Mode is "tcp" or "uds".
	Mode       string `yaml:"mode"`
	Port       string `yaml:"port"`
	SocketPath string `yaml:"socketPath"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Board struct {
	ID string `yaml:"id"`

	// SeedAreas are created on first start when the store is empty.
	SeedAreas []string `yaml:"seedAreas"`
}

func Default() Config {
	var cfg Config
	cfg.Server.Mode = "tcp"
	cfg.Server.Port = "8080"
	cfg.Database.Path = "opsboard.db"
	cfg.Board.ID = "default"
	return cfg
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the effective config: OPSBOARD_CONFIG names the YAML file
// (optional), then individual variables override single fields.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := os.Getenv("OPSBOARD_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if socket := os.Getenv("SERVER_SOCKET_PATH"); socket != "" {
		cfg.Server.SocketPath = socket
	}
	if db := os.Getenv("OPSBOARD_DB"); db != "" {
		cfg.Database.Path = db
	}
	return cfg, nil
}
