package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// DB_DSN vacío => repos in-memory (modo dev).
	DBDSN string

	// REDIS_URL vacío => rate limiter in-memory.
	RedisURL string

	LogLevel  string
	LogFormat string
	AppName   string

	AuthBaseURL string
	AuthAPIKey  string
	AuthTimeout time.Duration

	ReminderSchedule   string
	ReminderWindowDays int

	AdminRateLimit  int
	AdminRateWindow time.Duration
}

// Load lee .env (si existe) y luego el entorno. Las variables ya presentes
// en el entorno tienen prioridad sobre el archivo.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	return Config{
		Port:      getEnv("PORT", "8080"),
		DBDSN:     getEnv("DB_DSN", ""),
		RedisURL:  getEnv("REDIS_URL", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		AppName:   getEnv("APP_NAME", "elearning-access"),

		AuthBaseURL: getEnv("AUTH_BASE_URL", ""),
		AuthAPIKey:  getEnv("AUTH_API_KEY", ""),
		AuthTimeout: getEnvDuration("AUTH_TIMEOUT", 5*time.Second),

		// Diario a las 9 AM, hora del servidor.
		ReminderSchedule:   getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		ReminderWindowDays: getEnvInt("REMINDER_WINDOW_DAYS", 7),

		AdminRateLimit:  getEnvInt("ADMIN_RATE_LIMIT", 30),
		AdminRateWindow: getEnvDuration("ADMIN_RATE_WINDOW", time.Minute),
	}, nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Acepta "30s", "2m" o segundos pelados ("30").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
