package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
	"github.com/pelletier/go-toml/v2"
)

// LocalConfigName is the per-project config file searched from the working directory up
const LocalConfigName = ".padsched.toml"

// DateLayout is the layout of start_program
const DateLayout = "2006-01-02"

// Config holds all application configuration
type Config struct {
	Program ProgramConfig `toml:"program"`
	Inputs  InputsConfig  `toml:"inputs"`
	Output  OutputConfig  `toml:"output"`
	Replan  ReplanConfig  `toml:"replan"`

	Notifications NotificationsConfig `toml:"notifications"`
}

// ProgramConfig holds scheduling settings
type ProgramConfig struct {
	StartProgram string `toml:"start_program" valid:"required"`
	TieBreak     string `toml:"tie_break" valid:"in(input_order|name)"`
}

// InputsConfig locates the input tables
type InputsConfig struct {
	Dir            string `toml:"dir"`
	Tasks          string `toml:"tasks"`
	Resources      string `toml:"resources"`
	Ranks          string `toml:"ranks"`
	Unavailability string `toml:"unavailability"`
	Scenario       string `toml:"scenario"`
}

// OutputConfig holds schedule output settings
type OutputConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format" valid:"in(csv|json|table)"`
}

// ReplanConfig holds watch mode settings
type ReplanConfig struct {
	Cron     string `toml:"cron"`
	Debounce string `toml:"debounce"`
}

// NotificationsConfig holds watch mode notification settings
type NotificationsConfig struct {
	Desktop bool `toml:"desktop"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Program: ProgramConfig{
			TieBreak: "input_order",
		},
		Inputs: InputsConfig{
			Dir:            ".",
			Tasks:          "tasks.csv",
			Resources:      "resources.csv",
			Ranks:          "ranks.csv",
			Unavailability: "unavailability.csv",
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Replan: ReplanConfig{
			Debounce: "500ms",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Expand paths
	cfg.Inputs.Dir = ExpandPath(cfg.Inputs.Dir)
	cfg.Inputs.Scenario = ExpandPath(cfg.Inputs.Scenario)
	cfg.Output.Path = ExpandPath(cfg.Output.Path)

	return cfg, nil
}

// LoadWithLocalFallback loads the explicit path if given, else the nearest
// local config, else the user config
func LoadWithLocalFallback(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if local := FindLocalConfig(); local != "" {
		return Load(local)
	}
	return Load(DefaultConfigPath())
}

// FindLocalConfig walks up from the working directory looking for LocalConfigName
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the configuration as TOML
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the struct tags and the values they cannot express
func (c *Config) Validate() error {
	for _, section := range []any{c.Program, c.Inputs, c.Output} {
		if _, err := govalidator.ValidateStruct(section); err != nil {
			return goerrors.ErrServiceValidation{
				ServiceName: "padsched",
				Caller:      "Config.Validate",
				Issue:       err,
			}
		}
	}
	if _, err := c.StartDate(); err != nil {
		return goerrors.ErrValidation{
			Caller: "Config.Validate",
			Issue: goerrors.ErrInvalidInput{
				InputName:  "program.start_program",
				InputValue: c.Program.StartProgram,
				Issue:      err,
			},
		}
	}
	if _, err := c.DebounceDuration(); err != nil {
		return goerrors.ErrValidation{
			Caller: "Config.Validate",
			Issue: goerrors.ErrInvalidInput{
				InputName:  "replan.debounce",
				InputValue: c.Replan.Debounce,
				Issue:      err,
			},
		}
	}
	return nil
}

// StartDate parses start_program
func (c *Config) StartDate() (time.Time, error) {
	return time.Parse(DateLayout, c.Program.StartProgram)
}

// DebounceDuration parses replan.debounce; empty means no debounce
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Replan.Debounce == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Replan.Debounce)
}

// InputPath resolves a table file name against the inputs directory
func (c *Config) InputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Inputs.Dir, name)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "padsched", "config.toml")
}
