// Load envs from .env
// Load YAML config
// Apply env overrides
// Validate config

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go-jobboard-scraper/internal/rules"
	"go-jobboard-scraper/internal/skills"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Env      string `yaml:"env" envconfig:"APP_ENV"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Browser  BrowserConfig  `yaml:"browser"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Schedule ScheduleConfig `yaml:"schedule"`

	// vocabulary and selectors, overlaid on rules.Default()
	Rules rules.Rules `yaml:"rules" ignored:"true"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url" envconfig:"DATABASE_URL"`
	// JSON file store used when URL is empty
	StorePath string `yaml:"store_path" envconfig:"STORE_PATH"`
}

type RedisConfig struct {
	URL     string        `yaml:"url" envconfig:"REDIS_URL"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type BrowserConfig struct {
	Headless      bool          `yaml:"headless" envconfig:"HEADLESS"`
	Install       bool          `yaml:"install"`
	UserAgent     string        `yaml:"user_agent"`
	CookiesPath   string        `yaml:"cookies_path"`
	NavTimeout    time.Duration `yaml:"nav_timeout"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
	MinDelay      time.Duration `yaml:"min_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	Scroll        bool          `yaml:"scroll"`
	MouseMoves    bool          `yaml:"mouse_moves"`
	ScreenshotDir string        `yaml:"screenshot_dir"`
}

type ScraperConfig struct {
	BaseURL     string `yaml:"base_url"`
	ListingPath string `yaml:"listing_path"`

	DetailDelay  time.Duration `yaml:"detail_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollAttempts int           `yaml:"poll_attempts"`

	MaxCardSkills       int    `yaml:"max_card_skills"`
	MaxDetailSkills     int    `yaml:"max_detail_skills"`
	MaxSkills           int    `yaml:"max_skills"`
	CamelSplitThreshold int    `yaml:"camel_split_threshold"`
	ShortDescriptionLen int    `yaml:"short_description_len"`
	DefaultCurrency     string `yaml:"default_currency"`

	// parameters of the refresh action and of scheduled runs
	RefreshMaxJobs       int  `yaml:"refresh_max_jobs"`
	RefreshMaxPages      int  `yaml:"refresh_max_pages"`
	RefreshScrapeDetails bool `yaml:"refresh_scrape_details"`
}

// ListingURL joins the base URL and the listing path.
func (s ScraperConfig) ListingURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.ListingPath, "/")
}

type ScheduleConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"SCHEDULE_ENABLED"`
	// robfig/cron spec, e.g. "@every 6h" or "0 */6 * * *"
	Interval string `yaml:"interval" envconfig:"SCHEDULE_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{StorePath: "data/jobs.json"},
		Redis:    RedisConfig{LockTTL: 30 * time.Minute},
		Browser: BrowserConfig{
			Headless:     true,
			NavTimeout:   30 * time.Second,
			ReadyTimeout: 10 * time.Second,
			MinDelay:     2 * time.Second,
			MaxDelay:     4 * time.Second,
			Scroll:       true,
			MouseMoves:   true,
		},
		Scraper: ScraperConfig{
			BaseURL:              "https://devsunite.com",
			ListingPath:          "/jobs",
			DetailDelay:          2 * time.Second,
			PollInterval:         500 * time.Millisecond,
			PollAttempts:         10,
			MaxCardSkills:        10,
			MaxDetailSkills:      20,
			MaxSkills:            skills.DefaultMaxSkills,
			CamelSplitThreshold:  skills.DefaultCamelSplitThreshold,
			ShortDescriptionLen:  200,
			DefaultCurrency:      "INR",
			RefreshMaxJobs:       50,
			RefreshMaxPages:      5,
			RefreshScrapeDetails: true,
		},
		Schedule: ScheduleConfig{Interval: "@every 6h"},
		Rules:    rules.Default(),
	}
}

// Load builds the config from defaults, the YAML file at path and the
// environment, in that order. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	//Override with env vars
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true, "test": true}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	u, err := url.Parse(c.Scraper.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid scraper.base_url: %q", c.Scraper.BaseURL)
	}
	if c.Database.URL == "" && c.Database.StorePath == "" {
		return errors.New("either DATABASE_URL or STORE_PATH must be set")
	}

	if c.Scraper.RefreshMaxJobs < 0 || c.Scraper.RefreshMaxJobs > 1000 {
		return fmt.Errorf("scraper.refresh_max_jobs must be between 0 and 1000 (got %d)", c.Scraper.RefreshMaxJobs)
	}
	if c.Scraper.RefreshMaxPages < 1 || c.Scraper.RefreshMaxPages > 50 {
		return fmt.Errorf("scraper.refresh_max_pages must be between 1 and 50 (got %d)", c.Scraper.RefreshMaxPages)
	}
	if c.Scraper.PollAttempts < 1 {
		return errors.New("scraper.poll_attempts must be at least 1")
	}
	if c.Browser.MaxDelay < c.Browser.MinDelay {
		return fmt.Errorf("browser.max_delay (%s) cannot be less than browser.min_delay (%s)", c.Browser.MaxDelay, c.Browser.MinDelay)
	}
	if len(c.Rules.Selectors.Cards) == 0 {
		return errors.New("rules.selectors.cards must not be empty")
	}

	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Interval) == "" {
		return errors.New("SCHEDULE_INTERVAL is required when scheduling is enabled")
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
