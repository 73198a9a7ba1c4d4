package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Fyers struct {
		BaseURL     string        `yaml:"base_url"`
		ClientID    string        `yaml:"client_id"`
		AccessToken string        `yaml:"access_token"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"fyers"`
	News struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		MaxItems   int           `yaml:"max_items"`
		DailyQuota int           `yaml:"daily_quota"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"news"`
	Screener struct {
		Symbols              []string      `yaml:"symbols"`
		VolumeSurgeThreshold float64       `yaml:"volume_surge_threshold"`
		PriceChangeMin       float64       `yaml:"price_change_min"`
		PriceChangeMax       float64       `yaml:"price_change_max"`
		LookbackDays         int           `yaml:"lookback_days"`
		MinPrice             float64       `yaml:"min_price"`
		MaxPrice             float64       `yaml:"max_price"`
		MinHoldDays          int           `yaml:"min_hold_days"`
		MaxHoldDays          int           `yaml:"max_hold_days"`
		Concurrency          int           `yaml:"concurrency"`
		RequestTimeout       time.Duration `yaml:"request_timeout"`
		MaxFailureFraction   float64       `yaml:"max_failure_fraction"`
	} `yaml:"screener"`
	Schedule struct {
		Interval    time.Duration `yaml:"interval"`
		MarketOpen  string        `yaml:"market_open"`  // "09:15"
		MarketClose string        `yaml:"market_close"` // "15:30"
		Timezone    string        `yaml:"timezone"`     // IANA name, e.g. Asia/Kolkata
	} `yaml:"schedule"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FYERS_ACCESS_TOKEN"); v != "" {
		c.Fyers.AccessToken = v
	}
	if v := os.Getenv("FYERS_CLIENT_ID"); v != "" {
		c.Fyers.ClientID = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Screener.Symbols = strings.Split(v, ",")
	}
	if v, ok := envFloat("VOLUME_SURGE_THRESHOLD"); ok {
		c.Screener.VolumeSurgeThreshold = v
	}
	if v, ok := envFloat("PRICE_CHANGE_MIN"); ok {
		c.Screener.PriceChangeMin = v
	}
	if v, ok := envFloat("PRICE_CHANGE_MAX"); ok {
		c.Screener.PriceChangeMax = v
	}
	if v, ok := envFloat("MIN_PRICE"); ok {
		c.Screener.MinPrice = v
	}
	if v, ok := envFloat("MAX_PRICE"); ok {
		c.Screener.MaxPrice = v
	}
	if v, ok := envInt("LOOKBACK_DAYS"); ok {
		c.Screener.LookbackDays = v
	}
	if v, ok := envInt("SCAN_INTERVAL_MINUTES"); ok {
		c.Schedule.Interval = time.Duration(v) * time.Minute
	}
	if v, ok := envInt("NEWS_API_DAILY_QUOTA"); ok {
		c.News.DailyQuota = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Host = host
		if found {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}

	return c, nil
}

func envFloat(key string) (float64, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Config) applyDefaults() {
	if c.Screener.VolumeSurgeThreshold == 0 {
		c.Screener.VolumeSurgeThreshold = 2.0
	}
	if c.Screener.PriceChangeMin == 0 {
		c.Screener.PriceChangeMin = 3.0
	}
	if c.Screener.PriceChangeMax == 0 {
		c.Screener.PriceChangeMax = 15.0
	}
	if c.Screener.LookbackDays == 0 {
		c.Screener.LookbackDays = 5
	}
	if c.Screener.MinPrice == 0 {
		c.Screener.MinPrice = 20
	}
	if c.Screener.MaxPrice == 0 {
		c.Screener.MaxPrice = 5000
	}
	if c.Screener.MinHoldDays == 0 {
		c.Screener.MinHoldDays = 5
	}
	if c.Screener.MaxHoldDays == 0 {
		c.Screener.MaxHoldDays = 30
	}
	if c.Screener.Concurrency == 0 {
		c.Screener.Concurrency = 4
	}
	if c.Screener.RequestTimeout == 0 {
		c.Screener.RequestTimeout = 5 * time.Second
	}
	if c.Screener.MaxFailureFraction == 0 {
		c.Screener.MaxFailureFraction = 0.5
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = 15 * time.Minute
	}
	if c.Schedule.MarketOpen == "" {
		c.Schedule.MarketOpen = "09:15"
	}
	if c.Schedule.MarketClose == "" {
		c.Schedule.MarketClose = "15:30"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Kolkata"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 5
	}
	if c.News.DailyQuota == 0 {
		c.News.DailyQuota = 100
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = 10 * time.Minute
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 10 * time.Second
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org"
	}
	if c.Fyers.Timeout == 0 {
		c.Fyers.Timeout = 10 * time.Second
	}
	if c.Fyers.BaseURL == "" {
		c.Fyers.BaseURL = "https://api-t1.fyers.in/api/v3"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Screener.Symbols) == 0 {
		return fmt.Errorf("screener.symbols cannot be empty")
	}
	if c.Fyers.AccessToken == "" && os.Getenv("FYERS_ACCESS_TOKEN") == "" {
		return fmt.Errorf("fyers.access_token is required")
	}
	if c.News.APIKey == "" && os.Getenv("NEWS_API_KEY") == "" {
		return fmt.Errorf("news.api_key is required")
	}
	if c.Screener.PriceChangeMin > c.Screener.PriceChangeMax {
		return fmt.Errorf("screener.price_change_min must not exceed price_change_max")
	}
	if c.Screener.MinPrice > c.Screener.MaxPrice {
		return fmt.Errorf("screener.min_price must not exceed max_price")
	}
	if c.Screener.MinHoldDays > c.Screener.MaxHoldDays {
		return fmt.Errorf("screener.min_hold_days must not exceed max_hold_days")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
	}
	return nil
}
