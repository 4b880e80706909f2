package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "YORLECT"

// DefaultSentencesURL is the published dataset the platform was built around.
const DefaultSentencesURL = "https://raw.githubusercontent.com/joynaomi81/Data-Curation/refs/heads/main/english_only.csv"

// Config holds all configuration for our application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Sentences  SentencesConfig  `mapstructure:"sentences"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Session    SessionConfig    `mapstructure:"session"`
	Export     ExportConfig     `mapstructure:"export"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	HTTPPort    int      `mapstructure:"http_port"`
	GRPCPort    int      `mapstructure:"grpc_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StoreConfig selects the progress store backend.
type StoreConfig struct {
	// Driver is one of "json", "sqlite3" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the progress file for the json driver.
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds database configuration for the SQL store drivers.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// SentencesConfig describes the sentence dataset.
type SentencesConfig struct {
	URL      string        `mapstructure:"url"`
	Column   string        `mapstructure:"column"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AssignmentConfig controls how many sentences each contributor receives.
type AssignmentConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// AdminConfig holds the shared admin secret.
type AdminConfig struct {
	Password string `mapstructure:"password"`
}

// SessionConfig controls browser sessions.
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

// ExportConfig holds destinations for CSV exports.
type ExportConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures an S3-compatible bucket for uploaded exports.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.grpc_port", 9090)
	viper.SetDefault("server.cors_origins", []string{})

	viper.SetDefault("store.driver", "json")
	viper.SetDefault("store.path", "user_progress.json")

	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "yorlect")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("sentences.url", DefaultSentencesURL)
	viper.SetDefault("sentences.column", "English")
	viper.SetDefault("sentences.cache_ttl", 5*time.Minute)
	viper.SetDefault("sentences.timeout", 30*time.Second)

	viper.SetDefault("assignment.batch_size", 100)

	viper.SetDefault("admin.password", "")

	viper.SetDefault("session.secret", "")
	viper.SetDefault("session.ttl", 12*time.Hour)
	viper.SetDefault("session.cookie_name", "yorlect_session")
	viper.SetDefault("session.secure", false)

	viper.SetDefault("export.s3.bucket", "")
	viper.SetDefault("export.s3.region", "us-east-1")
	viper.SetDefault("export.s3.endpoint", "")
	viper.SetDefault("export.s3.access_key", "")
	viper.SetDefault("export.s3.secret_key", "")
	viper.SetDefault("export.s3.prefix", "exports")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if _, err := c.DatabaseDriver(); err != nil {
		return err
	}
	if c.Assignment.BatchSize <= 0 {
		return fmt.Errorf("assignment.batch_size must be positive, got %d", c.Assignment.BatchSize)
	}
	if strings.TrimSpace(c.Sentences.Column) == "" {
		return fmt.Errorf("sentences.column must not be empty")
	}
	return nil
}

// DatabaseDriver returns the normalized store driver name.
func (c *Config) DatabaseDriver() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "", "json":
		return "json", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql", "pgx":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
}

// DatabaseURL returns the connection string for the SQL store drivers.
func (c *Config) DatabaseURL() (string, error) {
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn, nil
	}
	switch driver {
	case "sqlite3":
		return "file:yorlect.db?_busy_timeout=5000&_journal_mode=WAL", nil
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		), nil
	default:
		return "", fmt.Errorf("store driver %q has no database URL", driver)
	}
}

// HTTPAddr returns the listen address of the web UI.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GRPCAddr returns the listen address of the health endpoint.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
