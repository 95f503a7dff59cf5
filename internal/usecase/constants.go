package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultOTPTTL is how long a login code stays valid
	DefaultOTPTTL = 5 * time.Minute

	// OTPDigits is the length of a login code
	OTPDigits = 4

	// CurrencyCacheTTL bounds how stale a cached currency lookup may be
	CurrencyCacheTTL = time.Hour

	// DefaultBaseCurrency is the reporting currency for deal stats
	DefaultBaseCurrency = "INR"
)
