package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration loaded from environment variables
// and the optional per-source YAML file.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	EnabledSources      []string
	MaxWorkers          int
	BatchTimeout        time.Duration
	Deduplicate         bool
	SimilarityThreshold float64

	// ExpireAfter is how long an unseen listing stays active in storage.
	ExpireAfter time.Duration

	HTTPAddr      string
	CSVOutputPath string

	SourceConfigs map[string]SourceConfig
}

// SourceConfig carries per-source options, opaque to the dispatcher. Zero
// values fall back to the accessor defaults.
type SourceConfig struct {
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxRetries int    `yaml:"max_retries"`
	DelayMs    int    `yaml:"delay_ms"`
	UserAgent  string `yaml:"user_agent"`
	UseBrowser bool   `yaml:"use_browser"`
	WaitMs     int    `yaml:"wait_ms"`
	ChromeBin  string `yaml:"chrome_bin"`
}

// Timeout returns the per-request timeout (default 30s).
func (c SourceConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Retries returns the bounded retry attempt count (default 3).
func (c SourceConfig) Retries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

// Delay returns the minimum inter-request delay (default 1s).
func (c SourceConfig) Delay() time.Duration {
	if c.DelayMs <= 0 {
		return time.Second
	}
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Agent returns the outbound User-Agent header value.
func (c SourceConfig) Agent() string {
	if c.UserAgent == "" {
		return defaultUserAgent
	}
	return c.UserAgent
}

// Wait returns how long a browser fetch waits for the page to render
// (default 6s).
func (c SourceConfig) Wait() time.Duration {
	if c.WaitMs <= 0 {
		return 6 * time.Second
	}
	return time.Duration(c.WaitMs) * time.Millisecond
}

// Load reads the .env file, the environment, and the optional SOURCES_FILE,
// and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scanner"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scanner123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		EnabledSources:      splitList(getEnv("ENABLED_SOURCES", "")),
		MaxWorkers:          getEnvInt("MAX_WORKERS", 3),
		BatchTimeout:        time.Duration(getEnvInt("BATCH_TIMEOUT_SEC", 60)) * time.Second,
		Deduplicate:         getEnvBool("DEDUPLICATE", true),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.85),

		ExpireAfter: time.Duration(getEnvInt("EXPIRE_AFTER_HOURS", 168)) * time.Hour,

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
	}

	if path := getEnv("SOURCES_FILE", ""); path != "" {
		sources, err := LoadSources(path)
		if err != nil {
			log.Printf("[config] Failed to load sources file %s: %v", path, err)
		} else {
			cfg.SourceConfigs = sources
		}
	}

	return cfg
}

// LoadSources parses a YAML file mapping source names to their options.
func LoadSources(path string) (map[string]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sources file: %w", err)
	}

	sources := make(map[string]SourceConfig)
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("config: parse sources file: %w", err)
	}
	return sources, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
