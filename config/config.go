package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Listing sources accepted by LISTING_SOURCE.
const (
	SourceCSV      = "csv"
	SourcePortal   = "portal"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath     string
	OutputPath    string
	ReportCSVPath string
	ListingSource string
	LogLevel      string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	PortalURL   string
	PortalPages int
	ChromeBin   string
}

// Load reads the .env file (if any) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		InputPath:     getEnv("INPUT_PATH", "./data/listings.csv"),
		OutputPath:    getEnv("OUTPUT_PATH", "./output/report.json"),
		ReportCSVPath: getEnv("REPORT_CSV_PATH", ""),
		ListingSource: strings.ToLower(getEnv("LISTING_SOURCE", SourceCSV)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "analyser"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "analyser123"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		PortalURL:   getEnv("PORTAL_URL", ""),
		PortalPages: getEnvInt("PORTAL_PAGES", 2),
		ChromeBin:   getEnv("CHROME_BIN", ""),
	}
}

// ApplyArgs overrides the input and output paths from positional arguments
// "<input> <output>". Any other argument count is a usage error.
func (c *Config) ApplyArgs(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
		c.InputPath, c.OutputPath = args[0], args[1]
		return nil
	default:
		return fmt.Errorf("expected <input_file_path> <output_file_path>, got %d argument(s)", len(args))
	}
}

// Validate reports configuration that cannot produce a run.
func (c *Config) Validate() error {
	switch c.ListingSource {
	case SourceCSV:
		if c.InputPath == "" {
			return fmt.Errorf("config: INPUT_PATH is required for the csv source")
		}
	case SourcePortal:
		if c.PortalURL == "" {
			return fmt.Errorf("config: PORTAL_URL is required for the portal source")
		}
	case SourcePostgres:
		if !c.PostgresEnabled {
			return fmt.Errorf("config: POSTGRES_ENABLED must be true for the postgres source")
		}
	default:
		return fmt.Errorf("config: unknown LISTING_SOURCE %q", c.ListingSource)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("config: OUTPUT_PATH is required")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("config: MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	}
	return nil
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

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
