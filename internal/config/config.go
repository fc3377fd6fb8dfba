package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// LibraryPath points at the standard model library, loaded once before
	// any project file.
	LibraryPath string   `toml:"library_path"`
	SourcePaths []string `toml:"source_paths"`
	Extensions  []string `toml:"extensions"`
	Exclude     Exclude  `toml:"exclude"`
	Watch       Watch    `toml:"watch"`
	History     History  `toml:"history"`
	Metrics     Metrics  `toml:"metrics"`
}

type Exclude struct {
	Dirs []string `toml:"dirs"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type History struct {
	Path string `toml:"path"` // sqlite file; empty disables history
}

type Metrics struct {
	Addr string `toml:"addr"` // listen address; empty disables the endpoint
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if len(c.SourcePaths) == 0 {
		c.SourcePaths = []string{"."}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".sysml", ".kerml"}
	}
	if len(c.Exclude.Dirs) == 0 {
		c.Exclude.Dirs = []string{".git", "node_modules", "target"}
	}
}
