package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validation errors
var (
	ErrInvalidCurrency  = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrPasswordTooWeak  = fmt.Errorf("%w: password does not meet requirements", ErrValidation)
	ErrInvalidDateRange = fmt.Errorf("%w: invalid date filter", ErrValidation)
)

// Validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 255
	DefaultPageSize   = 10
	MaxPageSize       = 100
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// ValidateCurrencyCode validates a three-letter currency code
func ValidateCurrencyCode(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currencyRegex.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

// ValidateName validates a display name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Validationf("%s cannot be empty", field)
	}
	if len(name) > MaxNameLength {
		return Validationf("%s exceeds %d characters", field, MaxNameLength)
	}
	return nil
}

// ValidatePhone validates a customer phone number
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(strings.TrimSpace(phone)) {
		return Validationf("invalid phone number")
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

var (
	upperRegex  = regexp.MustCompile(`[A-Z]`)
	lowerRegex  = regexp.MustCompile(`[a-z]`)
	numberRegex = regexp.MustCompile(`[0-9]`)
)

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) || !numberRegex.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// Page is a validated 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// NewPage clamps page and limit into range.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Number: page, Limit: limit}
}

// DateFilter names a preset listing window.
type DateFilter string

const (
	DateToday     DateFilter = "today"
	DateYesterday DateFilter = "yesterday"
	DateLast7     DateFilter = "last7"
	DateLast30    DateFilter = "last30"
	DateLast90    DateFilter = "last90"
	DateThisMonth DateFilter = "thisMonth"
	DateCustom    DateFilter = "custom"
)

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Within reports whether r lies entirely inside o.
func (r DateRange) Within(o DateRange) bool {
	return !r.Start.Before(o.Start) && !r.End.After(o.End)
}

// DayBounds returns the calendar day containing t in loc, from 00:00:00 to 23:59:59.999999999.
func DayBounds(t time.Time, loc *time.Location) DateRange {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// ResolveDateFilter turns a preset into a concrete window relative to now. Custom windows
// take whole days from start and end. An empty filter means today.
func ResolveDateFilter(filter DateFilter, start, end *time.Time, now time.Time, loc *time.Location) (DateRange, error) {
	today := DayBounds(now, loc)

	back := func(days int) DateRange {
		return DateRange{Start: today.Start.AddDate(0, 0, -days), End: today.End}
	}

	switch filter {
	case "", DateToday:
		return today, nil
	case DateYesterday:
		return DayBounds(today.Start.AddDate(0, 0, -1), loc), nil
	case DateLast7:
		return back(7), nil
	case DateLast30:
		return back(30), nil
	case DateLast90:
		return back(90), nil
	case DateThisMonth:
		first := time.Date(today.Start.Year(), today.Start.Month(), 1, 0, 0, 0, 0, loc)
		return DateRange{Start: first, End: first.AddDate(0, 1, 0).Add(-time.Nanosecond)}, nil
	case DateCustom:
		if start == nil || end == nil {
			return DateRange{}, fmt.Errorf("%w: startDate and endDate are required for custom", ErrInvalidDateRange)
		}
		r := DateRange{Start: DayBounds(*start, loc).Start, End: DayBounds(*end, loc).End}
		if r.End.Before(r.Start) {
			return DateRange{}, fmt.Errorf("%w: endDate is before startDate", ErrInvalidDateRange)
		}
		return r, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, filter)
	}
}
