// Package config loads the application configuration and the inspector
// profile registry.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type RenderConfig struct {
	// Strategy selects the renderer: "latex" or "direct".
	Strategy    string `mapstructure:"strategy"`
	TemplateDir string `mapstructure:"template_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	Compress    bool   `mapstructure:"compress"`
}

type FetchConfig struct {
	MaxInFlight    int           `mapstructure:"max_in_flight"`
	TotalTimeout   time.Duration `mapstructure:"total_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	MaxDim         int           `mapstructure:"max_dim"`
	JPEGQuality    int           `mapstructure:"jpeg_quality"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
}

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Render   RenderConfig  `mapstructure:"render"`
	Fetch    FetchConfig   `mapstructure:"fetch"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
	Archive  ArchiveConfig `mapstructure:"archive"`
	Profiles string        `mapstructure:"profiles"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("render.strategy", "latex")
	v.SetDefault("render.template_dir", "templates")
	v.SetDefault("render.output_dir", "outputs")
	v.SetDefault("render.compress", true)
	v.SetDefault("fetch.max_in_flight", 30)
	v.SetDefault("fetch.total_timeout", 20*time.Second)
	v.SetDefault("fetch.connect_timeout", 5*time.Second)
	v.SetDefault("fetch.read_timeout", 10*time.Second)
	v.SetDefault("fetch.max_dim", 800)
	v.SetDefault("fetch.jpeg_quality", 70)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
}

// Load reads the config file at path; an empty path yields the defaults.
// GEMINI_API_KEY and REPORT_FORGE_* env vars override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("REPORT_FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
