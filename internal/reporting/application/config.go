package application

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits bounds period aggregation requests.
type Limits struct {
	MaxSubClients   int `yaml:"max_sub_clients"`
	MaxPeriodMonths int `yaml:"max_period_months"`
}

// ScheduleConfig defines the daily regeneration run.
type ScheduleConfig struct {
	DailyAt     string   `yaml:"daily_at"`
	MainClients []string `yaml:"main_clients"`
}

// LockConfig defines the distributed report lock.
type LockConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Wait time.Duration `yaml:"wait"`
}

// Config defines reporting configuration.
type Config struct {
	Limits   Limits         `yaml:"limits"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Lock     LockConfig     `yaml:"lock"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Limits: Limits{
			MaxSubClients:   10,
			MaxPeriodMonths: 36,
		},
		Schedule: ScheduleConfig{DailyAt: "03:00"},
		Lock: LockConfig{
			TTL:  2 * time.Minute,
			Wait: 30 * time.Second,
		},
	}
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("REPORTING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if value := os.Getenv("REPORTING_DAILY_AT"); value != "" {
		cfg.Schedule.DailyAt = value
	}
	if len(cfg.Schedule.MainClients) == 0 {
		cfg.Schedule.MainClients = splitCSV(os.Getenv("REPORTING_MAIN_CLIENTS"))
	}
	cfg.Lock.TTL = getenvDuration("REPORT_LOCK_TTL", cfg.Lock.TTL)
	cfg.Lock.Wait = getenvDuration("REPORT_LOCK_WAIT", cfg.Lock.Wait)
	cfg.Limits.MaxSubClients = getenvIntDefault("REPORTING_MAX_SUB_CLIENTS", cfg.Limits.MaxSubClients)
	cfg.Limits.MaxPeriodMonths = getenvIntDefault("REPORTING_MAX_PERIOD_MONTHS", cfg.Limits.MaxPeriodMonths)
	return cfg, cfg.Validate()
}

// Validate checks config values.
func (c Config) Validate() error {
	if c.Limits.MaxSubClients <= 0 {
		return errors.New("reporting config: max_sub_clients must be positive")
	}
	if c.Limits.MaxPeriodMonths <= 0 {
		return errors.New("reporting config: max_period_months must be positive")
	}
	if _, _, err := parseDailyAt(c.Schedule.DailyAt); err != nil {
		return errors.New("reporting config: daily_at must be HH:MM")
	}
	if c.Lock.TTL <= 0 {
		return errors.New("reporting config: lock ttl must be positive")
	}
	return nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(value string) []string {
	return splitCSV(value)
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
