package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env-default:"prod"`
	API     APIConfig     `yaml:"api"`
	Page    PageConfig    `yaml:"page"`
	Server  ServerConfig  `yaml:"server"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"DASH_API_URL" env-required:"true"`
	// Zero means no client timeout.
	Timeout time.Duration `yaml:"timeout" env-default:"0s"`
	Cookie  string        `yaml:"cookie" env:"DASH_COOKIE"`
}

type PageConfig struct {
	Template     string `yaml:"template" env-default:"web/dashboard.html"`
	RowsTable    string `yaml:"rows_table" env-default:"care-guidelines"`
	RowAttr      string `yaml:"row_attr" env-default:"data-pot-id"`
	DefaultPotID string `yaml:"default_pot_id" env-default:"1"`
}

type ServerConfig struct {
	Address string `yaml:"address" env-default:":8080"`
}

type JournalConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"false"`
	Path    string        `yaml:"path" env-default:"/var/lib/plantdash/journal.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"168h"`
	// CleanupInterval is how often entries older than MaxAge are pruned.
	CleanupInterval time.Duration `yaml:"cleanup_interval" env-default:"1h"`
	// FailureThreshold is the number of failed tasks in the last hour above
	// which /health reports the journal as degraded.
	FailureThreshold int64 `yaml:"failure_threshold" env-default:"50"`
}

type LogConfig struct {
	Level  string     `yaml:"level" env-default:"info"`
	Format string     `yaml:"format" env-default:"json"`
	MQTT   MQTTConfig `yaml:"mqtt"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker" env:"LOG_MQTT_BROKER"`
	ClientID string `yaml:"client_id" env-default:"plantdash-refresher"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(ResolvePath(configPath))
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ResolvePath picks the flag value, then CONFIG_PATH, then config/config.yaml.
func ResolvePath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	return configPath
}

func (c *Config) validate() error {
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if c.Page.DefaultPotID == "" {
		return errors.New("page.default_pot_id is required")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path is required when the journal is enabled")
	}
	if c.Journal.Enabled && c.Journal.CleanupInterval <= 0 {
		return errors.New("journal.cleanup_interval must be positive")
	}
	return nil
}
