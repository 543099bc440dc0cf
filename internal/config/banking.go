package config

import (
	"os"
	"strconv"
	"time"
)

type BankingConfig struct {
	LockTimeout            time.Duration
	MaxRetries             int
	RetryInitialInterval   time.Duration
	RetryMaxInterval       time.Duration
	StatementDay           int
	StatementCheckInterval time.Duration
	StatementBatchLockTTL  time.Duration
	StatementSettleDelay   time.Duration
	IdempotencyTTL         time.Duration
	QRCodeTTL              time.Duration
	Currency               string
	InstitutionBIC         string
}

func LoadBankingConfig() *BankingConfig {
	return &BankingConfig{
		LockTimeout:            getEnvAsDuration("BANK_LOCK_TIMEOUT", 3*time.Second),
		MaxRetries:             getEnvAsInt("BANK_MAX_RETRIES", 3),
		RetryInitialInterval:   getEnvAsDuration("BANK_RETRY_INITIAL_INTERVAL", 50*time.Millisecond),
		RetryMaxInterval:       getEnvAsDuration("BANK_RETRY_MAX_INTERVAL", time.Second),
		StatementDay:           clampDay(getEnvAsInt("BANK_STATEMENT_DAY", 27)),
		StatementCheckInterval: getEnvAsDuration("BANK_STATEMENT_CHECK_INTERVAL", time.Hour),
		StatementBatchLockTTL:  getEnvAsDuration("BANK_STATEMENT_LOCK_TTL", 6*time.Hour),
		StatementSettleDelay:   getEnvAsDuration("BANK_STATEMENT_SETTLE_DELAY", time.Hour),
		IdempotencyTTL:         getEnvAsDuration("BANK_IDEMPOTENCY_TTL", 24*time.Hour),
		QRCodeTTL:              getEnvAsDuration("BANK_QR_TTL", 15*time.Minute),
		Currency:               getEnv("BANK_CURRENCY", "USD"),
		InstitutionBIC:         getEnv("BANK_INSTITUTION_BIC", "SCHLBANK"),
	}
}

// clampDay keeps the statement day inside every month.
func clampDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 28 {
		return 28
	}
	return day
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
