package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"
)

type Config struct {
	HTTPPort   string
	LogLevel   slog.Level
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// OrderSequenceStart seeds the order number sequence on first start.
	OrderSequenceStart int64

	RedisAddr     string
	RedisPassword string
	ProductTTL    time.Duration

	CRMAPIHost      string
	CRMAccountsHost string
	CRMClientID     string
	CRMSecret       string
	CRMRefreshToken string
	CRMRateLimit    float64

	// RulesFile overrides the embedded compliance rule set when set.
	RulesFile string

	RetryBatchSize int
	StuckThreshold time.Duration
}

// DSN returns the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// ConfigFromEnv reads the configuration through getenv. Optional numeric
// settings fall back to defaults when unset.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		HTTPPort:        getenv("HTTP_PORT"),
		DBHost:          getenv("DB_HOST"),
		DBPort:          getenv("DB_PORT"),
		DBUser:          getenv("DB_USER"),
		DBPassword:      getenv("DB_PASSWORD"),
		DBName:          getenv("DB_NAME"),
		DBSslMode:       getenv("DB_SSLMODE"),
		RedisAddr:       getenv("REDIS_ADDR"),
		RedisPassword:   getenv("REDIS_PASSWORD"),
		CRMAPIHost:      getenv("CRM_API_HOST"),
		CRMAccountsHost: getenv("CRM_ACCOUNTS_HOST"),
		CRMClientID:     getenv("CRM_CLIENT_ID"),
		CRMSecret:       getenv("CRM_CLIENT_SECRET"),
		CRMRefreshToken: getenv("CRM_REFRESH_TOKEN"),
		RulesFile:       getenv("COMPLIANCE_RULES_FILE"),
	}

	var errList []error
	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}
	if c.DBSslMode == "" {
		c.DBSslMode = "disable"
	}
	if c.DBHost == "" {
		errList = append(errList, errs.NewValueIsRequiredError("DB_HOST"))
	}
	if c.DBName == "" {
		errList = append(errList, errs.NewValueIsRequiredError("DB_NAME"))
	}

	level, err := parseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		errList = append(errList, err)
	}
	c.LogLevel = level

	c.OrderSequenceStart, err = intOr(getenv, "ORDER_SEQUENCE_START", 1000)
	errList = appendErr(errList, err)

	ttl, err := durationOr(getenv, "CRM_PRODUCT_CACHE_TTL", 24*time.Hour)
	errList = appendErr(errList, err)
	c.ProductTTL = ttl

	rl, err := intOr(getenv, "CRM_RATE_LIMIT", 10)
	errList = appendErr(errList, err)
	c.CRMRateLimit = float64(rl)

	batch, err := intOr(getenv, "CRM_RETRY_BATCH_SIZE", 25)
	errList = appendErr(errList, err)
	c.RetryBatchSize = int(batch)

	c.StuckThreshold, err = durationOr(getenv, "IH_STUCK_THRESHOLD", 72*time.Hour)
	errList = appendErr(errList, err)

	if len(errList) > 0 {
		return Config{}, errors.Join(errList...)
	}
	return c, nil
}

func parseLevel(raw string) (slog.Level, error) {
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return slog.LevelInfo, errs.NewValueIsInvalidError("LOG_LEVEL")
	}
	return level, nil
}

func intOr(getenv func(string) string, key string, def int64) (int64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return def, errs.NewValueIsInvalidError(key)
	}
	return v, nil
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def, errs.NewValueIsInvalidError(key)
	}
	return v, nil
}

func appendErr(list []error, err error) []error {
	if err != nil {
		return append(list, err)
	}
	return list
}
