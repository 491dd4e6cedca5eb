// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ProxyConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Strategy  string   `yaml:"strategy"` // round_robin | random
	Endpoints []string `yaml:"endpoints"`
}

type BrowserConfig struct {
	Headless         bool    `yaml:"headless"`
	LaunchRetries    int     `yaml:"launch_retries"`
	NavigationMs     float64 `yaml:"navigation_timeout_ms"`
	SelectorMs       float64 `yaml:"selector_timeout_ms"`
	IdleTimeoutSec   int     `yaml:"idle_timeout_sec"`
	SweepIntervalSec int     `yaml:"sweep_interval_sec"`
	MaxFormSteps     int     `yaml:"max_form_steps"`
	ScreenshotsPath  string  `yaml:"screenshots_path"`
}

func (b BrowserConfig) IdleTimeout() time.Duration {
	return time.Duration(b.IdleTimeoutSec) * time.Second
}

func (b BrowserConfig) SweepInterval() time.Duration {
	return time.Duration(b.SweepIntervalSec) * time.Second
}

type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ScheduleConfig declares one recurring scrape run driven by cron.
type ScheduleConfig struct {
	Cron      string `yaml:"cron"`
	Platform  string `yaml:"platform"`
	Keywords  string `yaml:"keywords"`
	Country   string `yaml:"country"`
	JobType   string `yaml:"job_type"`
	Seniority string `yaml:"seniority"`
	Quantity  int    `yaml:"quantity"`
}

type Config struct {
	Port        string `yaml:"port" env:"PORT"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`

	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	Proxy   ProxyConfig   `yaml:"proxy"`
	Browser BrowserConfig `yaml:"browser"`

	// Per-platform login credentials, keyed by platform name (linkedin,
	// indeed, glassdoor). Env overrides: LINKEDIN_EMAIL etc.
	Credentials map[string]Credentials `yaml:"credentials"`

	// Default answers used when filling application forms.
	CoverLetter string `yaml:"cover_letter"`
	Phone       string `yaml:"phone" env:"PHONE"`
	ResumePath  string `yaml:"resume_path" env:"RESUME_PATH"`

	Schedules []ScheduleConfig `yaml:"schedules"`

	//Paths
	CookiesPath string `yaml:"cookies_path"`
	CachePath   string `yaml:"cache_path"`
}

func Load() *Config {
	_ = godotenv.Load()

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Printf("Warning: Could not read config.yaml: %v", err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
	}

	//Override with env vars
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if proxies := os.Getenv("PROXY_ENDPOINTS"); proxies != "" {
		cfg.Proxy.Enabled = true
		cfg.Proxy.Endpoints = strings.Split(proxies, ",")
	}

	if cfg.Credentials == nil {
		cfg.Credentials = make(map[string]Credentials)
	}
	for _, platform := range []string{"linkedin", "indeed", "glassdoor"} {
		overrideCredentials(cfg, platform)
	}

	//Set default values if not set
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.Proxy.Strategy == "" {
		cfg.Proxy.Strategy = "round_robin"
	}

	if cfg.Browser.LaunchRetries == 0 {
		cfg.Browser.LaunchRetries = 2
	}

	if cfg.Browser.NavigationMs == 0 {
		cfg.Browser.NavigationMs = 30000
	}

	if cfg.Browser.SelectorMs == 0 {
		cfg.Browser.SelectorMs = 10000
	}

	if cfg.Browser.IdleTimeoutSec == 0 {
		cfg.Browser.IdleTimeoutSec = 15 * 60
	}

	if cfg.Browser.SweepIntervalSec == 0 {
		cfg.Browser.SweepIntervalSec = 2 * 60
	}

	if cfg.Browser.MaxFormSteps == 0 {
		cfg.Browser.MaxFormSteps = 12
	}

	if cfg.Browser.ScreenshotsPath == "" {
		cfg.Browser.ScreenshotsPath = "logs/screenshots"
	}

	if cfg.CookiesPath == "" {
		cfg.CookiesPath = ".cookies"
	}

	if cfg.CachePath == "" {
		cfg.CachePath = ".cache"
	}

	//Validate required fields
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}

// overrideCredentials applies LINKEDIN_EMAIL / LINKEDIN_PASSWORD style env
// vars on top of the yaml credentials block.
func overrideCredentials(cfg *Config, platform string) {
	prefix := strings.ToUpper(platform)
	creds := cfg.Credentials[platform]
	if email := os.Getenv(prefix + "_EMAIL"); email != "" {
		creds.Email = email
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		creds.Password = password
	}
	cfg.Credentials[platform] = creds
}
