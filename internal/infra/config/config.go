package config

import (
	"fmt"
	"os"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultRequestTimeout = 30 * time.Second
	defaultPollSchedule   = "@every 10m" // 600 seconds
	defaultConfigPath     = "config.yaml"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	APIToken     string `yaml:"-"`
	NotifyToken  string `yaml:"-"`
	NotifyTarget string `yaml:"-"`

	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollSchedule   string        `yaml:"poll_schedule"`
	LogLevel       string        `yaml:"log_level"`
	Environment    string        `yaml:"environment"`
	LogFile        string        `yaml:"log_file"`     // optional, logs go to stdout as well
	DatabaseURL    string        `yaml:"database_url"` // optional poll cycle journal
}

// MissingVariablesError lists every required variable that is not set.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("required environment variables are not set: %s", strings.Join(e.Names, ", "))
}

// required variables with the older names still accepted.
var requiredVars = []struct {
	name  string
	alias string
}{
	{"API_TOKEN", "PRACTICUM_TOKEN"},
	{"NOTIFY_TOKEN", "TELEGRAM_TOKEN"},
	{"NOTIFY_TARGET", "TELEGRAM_CHAT_ID"},
}

// Load reads configuration from the optional YAML file, environment variables
// and .env file (if present). Environment wins over the file.
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var missing []string
	values := make([]string, len(requiredVars))
	for i, v := range requiredVars {
		values[i] = lookup(v.name, v.alias)
		if values[i] == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingVariablesError{Names: missing}
	}
	cfg.APIToken, cfg.NotifyToken, cfg.NotifyTarget = values[0], values[1], values[2]

	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if v := os.Getenv("POLL_SCHEDULE"); v != "" {
		cfg.PollSchedule = v
	}
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = defaultPollSchedule
	}
	if _, err := cfg.Schedule(); err != nil {
		return nil, err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug" // Default log level
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	return cfg, nil
}

// Schedule parses PollSchedule. Both cron expressions and "@every <duration>" are accepted.
func (c *AppConfig) Schedule() (cron.Schedule, error) {
	s, err := cron.ParseStandard(c.PollSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_SCHEDULE %q: %w", c.PollSchedule, err)
	}
	return s, nil
}

func lookup(name, alias string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return os.Getenv(alias)
}
