package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a usecase wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")
	ErrPersistence  = errors.New("persistence error")
)

var (
	// Reconciliation errors
	ErrReconciliationNotFound = fmt.Errorf("%w: reconciliation", ErrNotFound)
	ErrOpeningEntriesRequired = fmt.Errorf("%w: openingEntries must be a non-empty list", ErrValidation)
	ErrNothingToUpdate        = fmt.Errorf("%w: provide openingEntries, closingEntries, notes or status", ErrValidation)
	ErrInvalidReconStatus     = fmt.Errorf("%w: unknown reconciliation status", ErrValidation)

	// Deal errors
	ErrDealNotFound     = fmt.Errorf("%w: deal", ErrNotFound)
	ErrDealItemNotFound = fmt.Errorf("%w: deal item", ErrNotFound)
	ErrInvalidDealType  = fmt.Errorf("%w: deal_type must be buy or sell", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidSortField = fmt.Errorf("%w: unsupported sort field", ErrValidation)
	ErrDuplicateDealNo  = fmt.Errorf("%w: deal number already exists", ErrBusinessRule)

	// Customer errors
	ErrCustomerNotFound = fmt.Errorf("%w: customer", ErrNotFound)
	ErrInactiveCustomer = fmt.Errorf("%w: Inactive customer cannot create deals", ErrBusinessRule)
	ErrDuplicatePhone   = fmt.Errorf("%w: phone number already registered", ErrBusinessRule)

	// Currency errors
	ErrCurrencyNotFound  = fmt.Errorf("%w: currency", ErrNotFound)
	ErrRateNotFound      = fmt.Errorf("%w: exchange rate", ErrNotFound)
	ErrDuplicateCurrency = fmt.Errorf("%w: currency code already exists", ErrBusinessRule)

	// User errors
	ErrUserNotFound   = fmt.Errorf("%w: user", ErrNotFound)
	ErrDuplicateEmail = fmt.Errorf("%w: email already registered", ErrBusinessRule)
	ErrUserInactive   = fmt.Errorf("%w: user account is inactive", ErrBusinessRule)

	// Report errors
	ErrInvalidReportFormat = fmt.Errorf("%w: format must be excel or pdf", ErrValidation)
	ErrUnknownReference    = fmt.Errorf("%w: referenced record does not exist", ErrValidation)
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
