// Package config handles intcode.toml configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "intcode.toml"

type Config struct {
	Log     LogConfig     `toml:"log"`
	Machine MachineConfig `toml:"machine"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Console ConsoleConfig `toml:"console"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	Modules string `toml:"modules"`
	Format  string `toml:"format"`
	Syslog  string `toml:"syslog"`
}

type MachineConfig struct {
	StepBudget  uint64 `toml:"step_budget"`
	MemoryLimit int64  `toml:"memory_limit"`
	Trace       bool   `toml:"trace"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type ServerConfig struct {
	Listen    string `toml:"listen"`
	ReadLimit int64  `toml:"read_limit"`
}

type ConsoleConfig struct {
	HistoryFile string `toml:"history_file"`
	Prompt      string `toml:"prompt"`
}

func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "terminal"},
		Storage: StorageConfig{DataDir: ".intcode"},
		Server:  ServerConfig{Listen: "127.0.0.1:7019", ReadLimit: 1 << 20},
		Console: ConsoleConfig{Prompt: "intcode> "},
	}
}

// Load reads a configuration file. Keys it does not set keep their defaults; unknown keys
// are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for intcode.toml. Without one it returns
// the defaults.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "terminal", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Machine.MemoryLimit < 0 {
		return fmt.Errorf("machine.memory_limit: must not be negative")
	}
	if c.Server.ReadLimit <= 0 {
		return fmt.Errorf("server.read_limit: must be positive")
	}
	return nil
}

// MachineOptions turns the [machine] section into options for intcode.New.
func (c *Config) MachineOptions() []intcode.Option {
	var opts []intcode.Option
	if c.Machine.StepBudget > 0 {
		opts = append(opts, intcode.WithStepBudget(c.Machine.StepBudget))
	}
	if c.Machine.MemoryLimit > 0 {
		opts = append(opts, intcode.WithMemoryLimit(c.Machine.MemoryLimit))
	}
	return opts
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
