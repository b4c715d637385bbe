package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"carbon-scribe/blue-carbon-verifier/internal/verification"
	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `json:"server"`
	Database      DatabaseConfig      `json:"database"`
	Redis         RedisConfig         `json:"redis"`
	Logging       LoggingConfig       `json:"logging"`
	Notifications NotificationsConfig `json:"notifications"`
	Workers       WorkersConfig       `json:"workers"`
	Verification  VerificationConfig  `json:"verification"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// RedisConfig configures the result cache. An empty Addr selects the
// in-memory cache.
type RedisConfig struct {
	Addr      string        `json:"addr"`
	Password  string        `json:"password"`
	DB        int           `json:"db"`
	ResultTTL time.Duration `json:"result_ttl"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// NotificationsConfig selects the decision notice channel
type NotificationsConfig struct {
	Provider  string `json:"provider"`
	Region    string `json:"region"`
	Sender    string `json:"sender"`
	TopicARN  string `json:"topic_arn"`
	QueueSize int    `json:"queue_size"`
}

// WorkersConfig configures the batch re-scoring job
type WorkersConfig struct {
	RescoreSchedule  string `json:"rescore_schedule"`
	RescoreBatchSize int    `json:"rescore_batch_size"`
}

// VerificationConfig overrides the engine defaults. Zero values keep the
// built-in defaults.
type VerificationConfig struct {
	Weights        map[string]float64              `json:"weights"`
	Thresholds     *verification.Thresholds        `json:"thresholds"`
	CoastalBoxes   []geospatial.BoundingBox        `json:"coastal_boxes"`
	EquatorialBand float64                         `json:"equatorial_band"`
	ProfilesPath   string                          `json:"profiles_path"`
	Fabrication    *verification.FabricationConfig `json:"fabrication"`
}

// LoadConfig loads configuration from file, .env and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "blue_carbon_verifier",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
		},
		Redis: RedisConfig{
			ResultTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Notifications: NotificationsConfig{
			Provider:  "log",
			QueueSize: 100,
		},
		Workers: WorkersConfig{
			RescoreSchedule:  "0 0 2 * * *",
			RescoreBatchSize: 100,
		},
	}

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")

	setString(&config.Redis.Addr, "REDIS_ADDR")
	setString(&config.Redis.Password, "REDIS_PASSWORD")
	setInt(&config.Redis.DB, "REDIS_DB")

	setString(&config.Logging.Level, "LOG_LEVEL")
	if dev := os.Getenv("LOG_DEVELOPMENT"); dev != "" {
		if b, err := strconv.ParseBool(dev); err == nil {
			config.Logging.Development = b
		}
	}

	setString(&config.Notifications.Provider, "NOTIFICATIONS_PROVIDER")
	setString(&config.Notifications.Region, "AWS_REGION")
	setString(&config.Notifications.Sender, "NOTIFICATIONS_SENDER")
	setString(&config.Notifications.TopicARN, "NOTIFICATIONS_TOPIC_ARN")

	setString(&config.Workers.RescoreSchedule, "RESCORE_SCHEDULE")
	setInt(&config.Workers.RescoreBatchSize, "RESCORE_BATCH_SIZE")

	setString(&config.Verification.ProfilesPath, "VERIFICATION_PROFILES_PATH")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewLogger builds the process logger
func (c *LoggingConfig) NewLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if c.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// EngineConfig merges the overrides onto verification.DefaultConfig. The
// result is validated by verification.NewEngine.
func (c *VerificationConfig) EngineConfig() (verification.Config, error) {
	cfg := verification.DefaultConfig()

	if len(c.Weights) > 0 {
		cfg.Weights = make(map[verification.Dimension]float64, len(c.Weights))
		for dim, w := range c.Weights {
			cfg.Weights[verification.Dimension(dim)] = w
		}
	}
	if c.Thresholds != nil {
		cfg.Thresholds = *c.Thresholds
	}
	if len(c.CoastalBoxes) > 0 {
		cfg.CoastalBoxes = c.CoastalBoxes
	}
	if c.EquatorialBand > 0 {
		cfg.EquatorialBand = c.EquatorialBand
	}
	if c.Fabrication != nil {
		cfg.Fabrication = *c.Fabrication
	}
	if c.ProfilesPath != "" {
		profiles, err := verification.LoadProfiles(c.ProfilesPath)
		if err != nil {
			return cfg, err
		}
		cfg.Profiles = profiles
	}

	return cfg, nil
}
