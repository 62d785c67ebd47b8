package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port    string
	Env     string
	LogFile string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// External job triggers (X-API-Key on /internal/jobs)
	JobsAPIKey string

	// Notifications
	NotifyDriver  string
	NotifyTimeout time.Duration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	AMQPURL       string
	AMQPQueue     string

	// Redis (sweep lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Scheduler
	SchedulerEnabled      bool
	CronRecurrences       string
	CronBudgetChecks      string
	CronGoalNotifications string
	SweepConcurrency      int
	JobLockTTL            time.Duration

	// Currency conversion
	CurrencyAPIURL   string
	CurrencyAPIKey   string
	CurrencyCacheTTL time.Duration

	// Reports
	ReportDir string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("ENV", "development"),
		LogFile: getEnv("LOG_FILE", ""),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fintrack"),
		DBPassword: getEnv("DB_PASSWORD", "fintrack"),
		DBName:     getEnv("DB_NAME", "fintrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		JobsAPIKey: getEnv("JOBS_API_KEY", ""),

		// Notifications
		NotifyDriver: strings.ToLower(getEnv("NOTIFY_DRIVER", "smtp")),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@fintrack.local"),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Scheduler
		SchedulerEnabled:      getEnvBool("SCHEDULER_ENABLED", true),
		CronRecurrences:       getEnv("CRON_RECURRENCES", "0 0 * * *"),
		CronBudgetChecks:      getEnv("CRON_BUDGET_CHECKS", "0 0 * * *"),
		CronGoalNotifications: getEnv("CRON_GOAL_NOTIFICATIONS", "0 8 1 * *"),
		SweepConcurrency:      getEnvInt("SWEEP_CONCURRENCY", 4),

		// Currency
		CurrencyAPIURL: getEnv("CURRENCY_API_URL", "http://api.exchangeratesapi.io/v1/latest"),
		CurrencyAPIKey: getEnv("CURRENCY_API_KEY", ""),

		ReportDir: getEnv("REPORT_DIR", "generated-reports"),
	}

	config.JWTExpirationDur = getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	config.JobLockTTL = getEnvDuration("JOB_LOCK_TTL", 30*time.Minute)
	config.CurrencyCacheTTL = getEnvDuration("CURRENCY_CACHE_TTL", time.Hour)

	if config.SweepConcurrency < 1 {
		log.Printf("Warning: invalid SWEEP_CONCURRENCY %d, falling back to 1\n", config.SweepConcurrency)
		config.SweepConcurrency = 1
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return defaultValue
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, os.Getenv(key), defaultValue)
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
