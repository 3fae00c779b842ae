package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver   string `toml:"driver"` // postgres, sqlite или memory
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
	Path     string `toml:"path"` // файл базы для sqlite
}

type Config struct {
	HTTPPort string         `toml:"http_port"`
	GRPCPort string         `toml:"grpc_port"`
	LogLevel string         `toml:"log_level"`
	Env      string         `toml:"env"`
	DB       DatabaseConfig `toml:"database"`
}

func defaults() *Config {
	return &Config{
		HTTPPort: "8080",
		GRPCPort: "50052",
		LogLevel: "info",
		Env:      "production",
		DB: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     "5432",
			User:     "todo_user",
			Password: "todo_pass",
			DBName:   "todo_db",
			SSLMode:  "disable",
			Path:     "todo.db",
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем TOML-файл (если path не пуст), затем переменные окружения.
// Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.DB.Driver = getEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.DBName = getEnv("DB_NAME", cfg.DB.DBName)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.Path = getEnv("DB_PATH", cfg.DB.Path)

	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (db *DatabaseConfig) DSN() string {
	switch db.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.User, quoteValue(db.Password), db.DBName, db.SSLMode)
	case DriverSQLite:
		q := url.Values{}
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "foreign_keys(1)")
		q.Set("_time_format", "sqlite")
		return "file:" + db.Path + "?" + q.Encode()
	default:
		return ""
	}
}

// quoteValue экранирует значение для keyword/value строки подключения libpq
func quoteValue(v string) string {
	if v == "" {
		return "''"
	}
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			out := make([]rune, 0, len(v)+2)
			out = append(out, '\'')
			for _, r := range v {
				if r == '\'' || r == '\\' {
					out = append(out, '\\')
				}
				out = append(out, r)
			}
			return string(append(out, '\''))
		}
	}
	return v
}
