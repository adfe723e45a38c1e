package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/trendscope-cli/internal/render"
)

// Global configuration structure.
type Global struct {
	InputPath string `mapstructure:"input_path" yaml:"input_path"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet     string `mapstructure:"sheet" yaml:"sheet"`

	// Charts
	OutputDir     string  `mapstructure:"output_dir" yaml:"output_dir"`
	ChartFormat   string  `mapstructure:"chart_format" yaml:"chart_format"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	TopCategories int     `mapstructure:"top_categories" yaml:"top_categories"`

	// Console diagnostics
	Diagnostics bool `mapstructure:"diagnostics" yaml:"diagnostics"`
	SampleRows  int  `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"input_path", "delimiter", "sheet",
	"output_dir", "chart_format", "chart_width_in", "chart_height_in", "top_categories",
	"diagnostics", "sample_rows",
	"log_level", "log_format", "log_file",
}

// Dir returns ~/.trendscope.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".trendscope"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.trendscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TRENDSCOPE")
	v.AutomaticEnv()

	v.SetDefault("input_path", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("output_dir", "charts")
	v.SetDefault("chart_format", "png")
	v.SetDefault("chart_width_in", 10.0)
	v.SetDefault("chart_height_in", 6.0)
	v.SetDefault("top_categories", 5)
	v.SetDefault("diagnostics", true)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Global) Validate() error {
	if !render.ValidFormat(c.ChartFormat) {
		return fmt.Errorf("chart_format: unsupported %q (use png|svg|pdf|jpg)", c.ChartFormat)
	}
	if c.ChartWidthIn <= 0 || c.ChartHeightIn <= 0 {
		return fmt.Errorf("chart size must be positive, got %vx%v inches", c.ChartWidthIn, c.ChartHeightIn)
	}
	if c.TopCategories <= 0 {
		return fmt.Errorf("top_categories must be positive, got %d", c.TopCategories)
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("sample_rows must not be negative, got %d", c.SampleRows)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported %q (use console|json)", c.LogFormat)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the configured field delimiter, or 0 to sniff it
// from the file extension. "tab" and "\t" both mean a tab.
func (c *Global) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter: must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

// Set assigns a key from its string form. It does not validate the result.
func (c *Global) Set(key, value string) error {
	switch key {
	case "input_path":
		c.InputPath = value
	case "delimiter":
		c.Delimiter = value
	case "sheet":
		c.Sheet = value
	case "output_dir":
		c.OutputDir = value
	case "chart_format":
		c.ChartFormat = strings.ToLower(value)
	case "chart_width_in", "chart_height_in":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		if key == "chart_width_in" {
			c.ChartWidthIn = f
		} else {
			c.ChartHeightIn = f
		}
	case "top_categories", "sample_rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		if key == "top_categories" {
			c.TopCategories = n
		} else {
			c.SampleRows = n
		}
	case "diagnostics":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for diagnostics: %s", value)
		}
		c.Diagnostics = b
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_format":
		c.LogFormat = strings.ToLower(value)
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Get returns a key's value in display form.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "input_path":
		return c.InputPath, nil
	case "delimiter":
		return c.Delimiter, nil
	case "sheet":
		return c.Sheet, nil
	case "output_dir":
		return c.OutputDir, nil
	case "chart_format":
		return c.ChartFormat, nil
	case "chart_width_in":
		return fmt.Sprintf("%g", c.ChartWidthIn), nil
	case "chart_height_in":
		return fmt.Sprintf("%g", c.ChartHeightIn), nil
	case "top_categories":
		return strconv.Itoa(c.TopCategories), nil
	case "diagnostics":
		return strconv.FormatBool(c.Diagnostics), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "log_file":
		return c.LogFile, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}
