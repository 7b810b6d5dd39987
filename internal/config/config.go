package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/healthcap/internal/dataset"
	"github.com/TobiSchelling/healthcap/internal/validation"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Data      Data      `yaml:"data"`
	Dashboard Dashboard `yaml:"dashboard"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Data struct {
	Dir          string `yaml:"dir" validate:"required"`
	HospitalFile string `yaml:"hospital_file" validate:"required"`
	CasesFile    string `yaml:"cases_file" validate:"required"`
	// StagingDB is the SQLite file the pipeline joins in; empty means in-memory.
	StagingDB string `yaml:"staging_db"`
}

type Dashboard struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	DefaultState string `yaml:"default_state" validate:"required"`
	JoinPolicy   string `yaml:"join_policy" validate:"oneof=inner left"`
	SampleSize   int    `yaml:"sample_size" validate:"min=1,max=100000"`
	SampleSeed   uint64 `yaml:"sample_seed"`
}

type Server struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type Logging struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// ConfigDir returns the XDG config directory for healthcap.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "healthcap")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/healthcap/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the built-in
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path loads the
// embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Data: Data{
			Dir:          "data",
			HospitalFile: "hospital.csv",
			CasesFile:    "cases_state.csv",
		},
		Dashboard: Dashboard{
			Title:        "Healthcare Capacity Analysis in Malaysia",
			DefaultState: "Selangor",
			JoinPolicy:   string(dataset.JoinInner),
			SampleSize:   100,
			SampleSeed:   1,
		},
		Server: Server{
			Host:            "127.0.0.1",
			Port:            8050,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{Level: "info", Format: "json"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config after flags have been applied.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Policy returns the configured join policy.
func (c *Config) Policy() dataset.JoinPolicy {
	return dataset.JoinPolicy(c.Dashboard.JoinPolicy)
}

// GetDataDir returns the data directory resolved against the executable
// location or the working directory.
func (c *Config) GetDataDir() string {
	return dataset.ResolveDataDir(c.Data.Dir)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
