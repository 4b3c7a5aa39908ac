package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"oink_ledger/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	AppVersion    string
	DatabaseURL   string
	DBTimeout     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string // optional; enables the identity middleware
	AllowedOrigin string

	LogLevel string
	LogJSON  bool

	// Ledger rules
	DefaultBalance     int64
	CheckinReward      int64
	StreakBonusEnabled bool
	GuestFIDPrefix     string

	// Rate limits
	APIRateLimit    int
	APIRateWindow   time.Duration
	WriteRateLimit  int
	WriteRateWindow time.Duration
}

// Load reads .env and the environment, exiting on invalid configuration.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func parse(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	port := getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	version := getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}

	guestPrefix := getenv("GUEST_FID_PREFIX")
	if guestPrefix == "" {
		guestPrefix = "guest_"
	}

	logLevel := strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	cfg := &Config{
		AppPort:            port,
		AppVersion:         version,
		DatabaseURL:        dbURL,
		RedisAddr:          getenv("REDIS_ADDR"),
		RedisPassword:      getenv("REDIS_PASSWORD"),
		JWTSecret:          getenv("JWT_SECRET"),
		AllowedOrigin:      getenv("ALLOWED_ORIGIN"),
		LogLevel:           logLevel,
		LogJSON:            getenv("LOG_JSON") == "true",
		StreakBonusEnabled: getenv("STREAK_BONUS_ENABLED") == "true",
		GuestFIDPrefix:     guestPrefix,
	}

	var err error
	if cfg.RedisDB, err = intOr(getenv, "REDIS_DB", 0, true); err != nil {
		return nil, err
	}

	timeoutSeconds, err := intOr(getenv, "DB_TIMEOUT_SECONDS", 5, false)
	if err != nil {
		return nil, err
	}
	cfg.DBTimeout = time.Duration(timeoutSeconds) * time.Second

	// стартовый баланс и награда за чекин
	if cfg.DefaultBalance, err = int64Or(getenv, "DEFAULT_BALANCE", 1000, true); err != nil {
		return nil, err
	}
	if cfg.CheckinReward, err = int64Or(getenv, "CHECKIN_REWARD", 10, false); err != nil {
		return nil, err
	}

	if cfg.APIRateLimit, err = intOr(getenv, "API_RATE_LIMIT", 120, false); err != nil {
		return nil, err
	}
	apiWindow, err := intOr(getenv, "API_RATE_WINDOW_SECONDS", 60, false)
	if err != nil {
		return nil, err
	}
	cfg.APIRateWindow = time.Duration(apiWindow) * time.Second

	if cfg.WriteRateLimit, err = intOr(getenv, "WRITE_RATE_LIMIT", 30, false); err != nil {
		return nil, err
	}
	writeWindow, err := intOr(getenv, "WRITE_RATE_WINDOW_SECONDS", 60, false)
	if err != nil {
		return nil, err
	}
	cfg.WriteRateWindow = time.Duration(writeWindow) * time.Second

	return cfg, nil
}

func intOr(getenv func(string) string, key string, def int, allowZero bool) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}

func int64Or(getenv func(string) string, key string, def int64, allowZero bool) (int64, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}
