// Package config loads and persists the application configuration from
// ~/.powerplay/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Data file locations
	Data DataConfig `toml:"data"`

	// Frequency analysis settings
	Analysis AnalysisConfig `toml:"analysis"`

	// Recommendation strategy settings
	Strategy StrategyConfig `toml:"strategy"`

	// Draw ingestion settings
	Ingest IngestConfig `toml:"ingest"`

	// Local dashboard settings
	Dashboard DashboardConfig `toml:"dashboard"`

	// Database backup settings
	Backup BackupConfig `toml:"backup"`
}

// DataConfig contains data file locations.
type DataConfig struct {
	Dir          string `toml:"dir"`           // Base data directory
	DatabasePath string `toml:"database_path"` // SQLite database path
	CSVPath      string `toml:"csv_path"`      // Draw history CSV path
}

// AnalysisConfig contains frequency analysis settings.
type AnalysisConfig struct {
	DecayBase        float64 `toml:"decay_base"`        // Recency weighting base in (0,1)
	ScheduleWeekdays []int   `toml:"schedule_weekdays"` // Draw weekdays, Monday=0
	TrendTopN        int     `toml:"trend_top_n"`       // Balls shown in trend charts
	TrendWindow      int     `toml:"trend_window"`      // Rolling window in draws
}

// StrategyConfig contains recommendation strategy settings.
type StrategyConfig struct {
	RandomSeed       int64 `toml:"random_seed"`        // 0 = non-deterministic
	HotWhitePool     int   `toml:"hot_white_pool"`     // Global-hot white pool size
	HotRedPool       int   `toml:"hot_red_pool"`       // Global-hot red pool size
	RecencyWhitePool int   `toml:"recency_white_pool"` // Recency-weighted white pool size
	RecencyRedPool   int   `toml:"recency_red_pool"`   // Recency-weighted red pool size
}

// IngestConfig contains draw ingestion settings.
type IngestConfig struct {
	APIURL          string `toml:"api_url"`          // NY Open Data Powerball endpoint
	Timeout         string `toml:"timeout"`          // HTTP timeout (e.g., "15s")
	CooldownHours   int    `toml:"cooldown_hours"`   // Minimum hours between fetches
	RequestInterval string `toml:"request_interval"` // Minimum delay between requests
}

// DashboardConfig contains local dashboard settings.
type DashboardConfig struct {
	Port int `toml:"port"`
}

// BackupConfig contains database backup settings.
type BackupConfig struct {
	Dir        string `toml:"dir"`        // Backup directory ("" = <data>/backups)
	Encrypt    bool   `toml:"encrypt"`    // Encrypt backup files
	Passphrase string `toml:"passphrase"` // Passphrase for encrypted backups
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:          "data",
			DatabasePath: filepath.Join("data", "powerplay.db"),
			CSVPath:      filepath.Join("data", "powerball_draws.csv"),
		},
		Analysis: AnalysisConfig{
			DecayBase:        0.995,
			ScheduleWeekdays: []int{0, 2, 5}, // Monday, Wednesday, Saturday
			TrendTopN:        5,
			TrendWindow:      10,
		},
		Strategy: StrategyConfig{
			RandomSeed:       0,
			HotWhitePool:     15,
			HotRedPool:       5,
			RecencyWhitePool: 20,
			RecencyRedPool:   8,
		},
		Ingest: IngestConfig{
			APIURL:          "https://data.ny.gov/resource/d6yy-54nr.json",
			Timeout:         "15s",
			CooldownHours:   6,
			RequestInterval: "2s",
		},
		Dashboard: DashboardConfig{
			Port: 8090,
		},
		Backup: BackupConfig{
			Dir:     "",
			Encrypt: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".powerplay")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from the given path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Analysis.DecayBase <= 0 || c.Analysis.DecayBase >= 1 {
		return fmt.Errorf("decay_base must be in (0, 1), got %v", c.Analysis.DecayBase)
	}
	for _, wd := range c.Analysis.ScheduleWeekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("invalid schedule weekday %d (want 0-6, Monday=0)", wd)
		}
	}
	if c.Analysis.TrendTopN < 1 || c.Analysis.TrendWindow < 1 {
		return fmt.Errorf("trend_top_n and trend_window must be positive")
	}
	if _, err := time.ParseDuration(c.Ingest.Timeout); err != nil {
		return fmt.Errorf("invalid ingest timeout %q: %w", c.Ingest.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Ingest.RequestInterval); err != nil {
		return fmt.Errorf("invalid ingest request_interval %q: %w", c.Ingest.RequestInterval, err)
	}
	if c.Ingest.CooldownHours < 0 {
		return fmt.Errorf("cooldown_hours cannot be negative")
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("invalid dashboard port %d", c.Dashboard.Port)
	}
	if c.Backup.Encrypt && c.Backup.Passphrase == "" {
		return fmt.Errorf("backup encryption enabled but no passphrase set")
	}
	return nil
}
