package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort string `yaml:"server.port"`

	// Database configuration
	DatabaseURL string `yaml:"database.url"`

	// Scraper configuration
	ScraperHeadless       bool          `yaml:"scraper.headless"`
	ScraperExecPath       string        `yaml:"scraper.exec_path"`
	ScraperUserAgent      string        `yaml:"scraper.user_agent"`
	ScraperMaxPages       int           `yaml:"scraper.max_pages"`
	ScraperScrollPasses   int           `yaml:"scraper.scroll_passes"`
	NavigationTimeout     time.Duration `yaml:"-"`
	NavigationTimeoutStr  string        `yaml:"scraper.navigation_timeout"`
	SelectorTimeout       time.Duration `yaml:"-"`
	SelectorTimeoutStr    string        `yaml:"scraper.selector_timeout"`
	ScrollWait            time.Duration `yaml:"-"`
	ScrollWaitStr         string        `yaml:"scraper.scroll_wait"`
	ExtractTimeout        time.Duration `yaml:"-"`
	ExtractTimeoutStr     string        `yaml:"scraper.extract_timeout"`

	// Media host (Cloudinary) configuration. Credentials may also come from
	// CLOUDINARY_CLOUD_NAME / CLOUDINARY_API_KEY / CLOUDINARY_API_SECRET
	// environment variables, which take precedence over the file.
	CloudinaryCloudName string `yaml:"cloudinary.cloud_name"`
	CloudinaryAPIKey    string `yaml:"cloudinary.api_key"`
	CloudinaryAPISecret string `yaml:"cloudinary.api_secret"`
	CloudinaryFolder    string `yaml:"cloudinary.folder"`

	// Trending cache configuration
	TrendingSchedule string        `yaml:"trending.schedule"`
	TrendingLimit    int           `yaml:"trending.limit"`
	TrendingTTL      time.Duration `yaml:"-"`
	TrendingTTLStr   string        `yaml:"trending.ttl"`

	// HTTP client tuning
	HTTPClientTimeout    time.Duration `yaml:"-"`
	HTTPClientTimeoutStr string        `yaml:"performance.http_client_timeout"`
	MaxIdleConns         int           `yaml:"performance.max_idle_conns"`
	MaxConnsPerHost      int           `yaml:"performance.max_conns_per_host"`

	// Logging configuration
	LogDirectory  string `yaml:"logging.dir"`
	LogOutputFile string `yaml:"logging.output_file"`
	LogErrorFile  string `yaml:"logging.error_file"`
}

// configFile represents the YAML structure
type configFile struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Scraper struct {
		Headless          *bool  `yaml:"headless"`
		ExecPath          string `yaml:"exec_path"`
		UserAgent         string `yaml:"user_agent"`
		MaxPages          int    `yaml:"max_pages"`
		ScrollPasses      int    `yaml:"scroll_passes"`
		NavigationTimeout string `yaml:"navigation_timeout"`
		SelectorTimeout   string `yaml:"selector_timeout"`
		ScrollWait        string `yaml:"scroll_wait"`
		ExtractTimeout    string `yaml:"extract_timeout"`
	} `yaml:"scraper"`
	Cloudinary struct {
		CloudName string `yaml:"cloud_name"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Folder    string `yaml:"folder"`
	} `yaml:"cloudinary"`
	Trending struct {
		Schedule string `yaml:"schedule"`
		Limit    int    `yaml:"limit"`
		TTL      string `yaml:"ttl"`
	} `yaml:"trending"`
	Performance struct {
		HTTPClientTimeout string `yaml:"http_client_timeout"`
		MaxIdleConns      int    `yaml:"max_idle_conns"`
		MaxConnsPerHost   int    `yaml:"max_conns_per_host"`
	} `yaml:"performance"`
	Logging struct {
		Directory  string `yaml:"dir"`
		OutputFile string `yaml:"output_file"`
		ErrorFile  string `yaml:"error_file"`
	} `yaml:"logging"`
}

// Manager handles configuration loading
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	if configPath == "" {
		configPath = "config.yaml"
	}
	return &Manager{configPath: configPath}
}

// Load reads configuration from the YAML file. A missing file is not an
// error; defaults apply.
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cfgFile configFile

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfgFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	headless := true
	if cfgFile.Scraper.Headless != nil {
		headless = *cfgFile.Scraper.Headless
	}

	cfg := &Config{
		ServerPort:           cfgFile.Server.Port,
		DatabaseURL:          cfgFile.Database.URL,
		ScraperHeadless:      headless,
		ScraperExecPath:      cfgFile.Scraper.ExecPath,
		ScraperUserAgent:     cfgFile.Scraper.UserAgent,
		ScraperMaxPages:      cfgFile.Scraper.MaxPages,
		ScraperScrollPasses:  cfgFile.Scraper.ScrollPasses,
		NavigationTimeoutStr: cfgFile.Scraper.NavigationTimeout,
		SelectorTimeoutStr:   cfgFile.Scraper.SelectorTimeout,
		ScrollWaitStr:        cfgFile.Scraper.ScrollWait,
		ExtractTimeoutStr:    cfgFile.Scraper.ExtractTimeout,
		CloudinaryCloudName:  cfgFile.Cloudinary.CloudName,
		CloudinaryAPIKey:     cfgFile.Cloudinary.APIKey,
		CloudinaryAPISecret:  cfgFile.Cloudinary.APISecret,
		CloudinaryFolder:     cfgFile.Cloudinary.Folder,
		TrendingSchedule:     cfgFile.Trending.Schedule,
		TrendingLimit:        cfgFile.Trending.Limit,
		TrendingTTLStr:       cfgFile.Trending.TTL,
		HTTPClientTimeoutStr: cfgFile.Performance.HTTPClientTimeout,
		MaxIdleConns:         cfgFile.Performance.MaxIdleConns,
		MaxConnsPerHost:      cfgFile.Performance.MaxConnsPerHost,
		LogDirectory:         cfgFile.Logging.Directory,
		LogOutputFile:        cfgFile.Logging.OutputFile,
		LogErrorFile:         cfgFile.Logging.ErrorFile,
	}

	// Environment overrides for secrets
	if v := os.Getenv("CLOUDINARY_CLOUD_NAME"); v != "" {
		cfg.CloudinaryCloudName = v
	}
	if v := os.Getenv("CLOUDINARY_API_KEY"); v != "" {
		cfg.CloudinaryAPIKey = v
	}
	if v := os.Getenv("CLOUDINARY_API_SECRET"); v != "" {
		cfg.CloudinaryAPISecret = v
	}

	// Set defaults if empty
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sqlite3:./data.db"
	}
	if cfg.ScraperUserAgent == "" {
		cfg.ScraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	}
	if cfg.ScraperMaxPages <= 0 {
		cfg.ScraperMaxPages = 4
	}
	if cfg.ScraperScrollPasses <= 0 {
		cfg.ScraperScrollPasses = 3
	}
	if cfg.CloudinaryFolder == "" {
		cfg.CloudinaryFolder = "tiktok-import"
	}
	if cfg.TrendingSchedule == "" {
		cfg.TrendingSchedule = "*/15 * * * *"
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 15
	}
	if cfg.LogDirectory == "" {
		cfg.LogDirectory = "./logs"
	}
	if cfg.LogOutputFile == "" {
		cfg.LogOutputFile = "app.log"
	}
	if cfg.LogErrorFile == "" {
		cfg.LogErrorFile = "app.error.log"
	}

	// Parse durations
	cfg.NavigationTimeout = parseDuration(cfg.NavigationTimeoutStr, 60*time.Second)
	cfg.SelectorTimeout = parseDuration(cfg.SelectorTimeoutStr, 5*time.Second)
	cfg.ScrollWait = parseDuration(cfg.ScrollWaitStr, 2*time.Second)
	cfg.ExtractTimeout = parseDuration(cfg.ExtractTimeoutStr, 90*time.Second)
	cfg.TrendingTTL = parseDuration(cfg.TrendingTTLStr, 10*time.Minute)
	cfg.HTTPClientTimeout = parseDuration(cfg.HTTPClientTimeoutStr, 60*time.Second)

	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 50
	}

	m.config = cfg
	return cfg, nil
}

// Get returns the current configuration (thread-safe)
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Global config manager instance
var globalManager *Manager

// Load loads configuration from the default YAML file locations
func Load() (*Config, error) {
	if globalManager == nil {
		configPath := "config.yaml"
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
		globalManager = NewManager(configPath)
	}
	return globalManager.Load()
}
