package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"teamroster/models"
)

type RedisConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"false"`
	Address  string        `env:"ADDRESS" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	UserTTL  time.Duration `env:"USER_TTL" envDefault:"5m"`
}

type Config struct {
	Environment       string        `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort        string        `env:"PORT" envDefault:"3000"`
	JWTSecret         string        `env:"JWT_SECRET"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN         string        `env:"SENTRY_DSN"`
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	TeamSweepInterval time.Duration `env:"TEAM_SWEEP_INTERVAL" envDefault:"10m"`
	Redis             RedisConfig   `envPrefix:"REDIS_"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

// LogConfig prints the non-secret parts of the configuration.
func (c *Config) LogConfig(logger logrus.FieldLogger) {
	logger.WithFields(logrus.Fields{
		"environment":   c.Environment,
		"port":          c.ServerPort,
		"database":      maskPassword(c.DatabaseURL),
		"redis_enabled": c.Redis.Enabled,
		"sentry":        c.SentryDSN != "",
	}).Info("Loaded configuration")

	if c.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; token issuance will fail")
	}
}

// ConnectDB opens the Postgres connection and migrates the schema.
func ConnectDB(cfg *Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	logger.WithField("database", maskPassword(cfg.DatabaseURL)).Info("Attempting to connect to database...")

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Successfully connected to the database")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("Database migration completed")
	return db, nil
}

// GormConfig is shared by production and test connections. TranslateError
// surfaces unique violations as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Team{},
	)
}

func maskPassword(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "*****")
	}
	return u.String()
}
