package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Engine   EngineConfig
	Employer EmployerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// EngineConfig tunes the punch engine.
type EngineConfig struct {
	// OperationTimeout bounds how long an ingest or workflow operation may
	// wait for its per-day lock before reporting a retryable timeout.
	OperationTimeout time.Duration
}

// EmployerConfig identifies the employer in AFD/AEJ file headers.
type EmployerConfig struct {
	IDType string // "1" CNPJ, "2" CPF
	ID     string
	Name   string
}

func Load() (*Config, error) {
	// A missing .env is fine in deployed environments; everything can come
	// from the process environment.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "pontoweb"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Engine configuration
	opTimeout, err := time.ParseDuration(getEnv("OPERATION_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPERATION_TIMEOUT: %w", err)
	}
	config.Engine = EngineConfig{
		OperationTimeout: opTimeout,
	}

	// Employer identification for regulatory file headers
	config.Employer = EmployerConfig{
		IDType: getEnv("EMPLOYER_ID_TYPE", "1"),
		ID:     getEnv("EMPLOYER_ID", ""),
		Name:   getEnv("EMPLOYER_NAME", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Employer.ID == "" {
		return fmt.Errorf("EMPLOYER_ID is required")
	}
	if c.Employer.Name == "" {
		return fmt.Errorf("EMPLOYER_NAME is required")
	}
	if c.Employer.IDType != "1" && c.Employer.IDType != "2" {
		return fmt.Errorf("EMPLOYER_ID_TYPE must be 1 (CNPJ) or 2 (CPF)")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
