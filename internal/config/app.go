package config

import (
	"strconv"

	"github.com/shopspring/decimal"

	"sunu_bank/internal/bank"
)

// ListenAddr is the HTTP bind address.
func ListenAddr() string {
	return getEnv("LISTEN_ADDR", "0.0.0.0:8080")
}

// MinimumDeposit is the smallest allowed opening deposit, in FCFA.
func MinimumDeposit() decimal.Decimal {
	raw := getEnv("MIN_OPENING_DEPOSIT", "10000")
	min, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NewFromInt(10000)
	}
	return min
}

// NumeroDigits sizes the account-number keyspace. Widen it as account volume
// grows; the default matches the historical 8-digit format.
func NumeroDigits() int {
	return getEnvInt("NUMERO_DIGITS", bank.DefaultNumeroDigits)
}

// NumeroMaxAttempts bounds the collision-retry loop during generation.
func NumeroMaxAttempts() int {
	return getEnvInt("NUMERO_MAX_ATTEMPTS", bank.DefaultNumeroMaxAttempts)
}

// AdminLogin and AdminPassword configure the seeded administrator.
func AdminLogin() string {
	return getEnv("ADMIN_LOGIN", "admin@sunubank.sn")
}

func AdminPassword() string {
	return getEnv("ADMIN_PASSWORD", "changez-moi")
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
