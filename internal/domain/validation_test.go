package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateCurrencyCode(t *testing.T) {
	t.Parallel()

	if err := ValidateCurrencyCode("usd"); err != nil {
		t.Fatalf("expected uppercase conversion to succeed, got %v", err)
	}

	if err := ValidateCurrencyCode("US"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}

	if err := ValidateCurrencyCode("US1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	if err := ValidateName("name", "Asha Traders"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ValidateName("name", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ValidateName("name", strings.Repeat("a", MaxNameLength+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"+91 98765 43210", "0123456789", "(022) 555-1234"} {
		if err := ValidatePhone(ok); err != nil {
			t.Fatalf("%q: expected no error, got %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "12"} {
		if err := ValidatePhone(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("USER@example.com"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}

	if err := ValidateEmail("invalid-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("Password1"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}

	if err := ValidatePassword("short"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}

	if err := ValidatePassword(strings.Repeat("A", MaxPasswordLength+1)); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak for long password, got %v", err)
	}

	if err := ValidatePassword("lowercase1"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak for missing uppercase, got %v", err)
	}
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	p := NewPage(0, 0)
	if p.Number != 1 || p.Limit != DefaultPageSize || p.Offset() != 0 {
		t.Fatalf("expected defaults, got %+v", p)
	}

	p = NewPage(3, 5000)
	if p.Limit != MaxPageSize || p.Offset() != 2*MaxPageSize {
		t.Fatalf("expected clamped limit, got %+v offset %d", p, p.Offset())
	}
}

func TestResolveDateFilter(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, loc)
	midnight := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	t.Run("today", func(t *testing.T) {
		r, err := ResolveDateFilter("", nil, nil, now, loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Start.Equal(midnight) || !r.End.Equal(midnight.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
			t.Fatalf("unexpected window %v - %v", r.Start, r.End)
		}
	})

	t.Run("yesterday is not within today", func(t *testing.T) {
		r, err := ResolveDateFilter(DateYesterday, nil, nil, now, loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Start.Equal(midnight.AddDate(0, 0, -1)) {
			t.Fatalf("unexpected start %v", r.Start)
		}
		if r.Within(DayBounds(now, loc)) {
			t.Fatal("expected yesterday to fall outside today")
		}
	})

	t.Run("last7", func(t *testing.T) {
		r, _ := ResolveDateFilter(DateLast7, nil, nil, now, loc)
		if !r.Start.Equal(midnight.AddDate(0, 0, -7)) {
			t.Fatalf("unexpected start %v", r.Start)
		}
		if !r.Contains(now) {
			t.Fatal("expected window to contain now")
		}
	})

	t.Run("this month", func(t *testing.T) {
		r, _ := ResolveDateFilter(DateThisMonth, nil, nil, now, loc)
		if r.Start.Day() != 1 || r.End.Month() != time.March || r.End.Day() != 31 {
			t.Fatalf("unexpected window %v - %v", r.Start, r.End)
		}
	})

	t.Run("custom requires both dates", func(t *testing.T) {
		start := now.AddDate(0, 0, -3)
		if _, err := ResolveDateFilter(DateCustom, &start, nil, now, loc); !errors.Is(err, ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}
		r, err := ResolveDateFilter(DateCustom, &start, &now, now, loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Start.Equal(midnight.AddDate(0, 0, -3)) {
			t.Fatalf("unexpected start %v", r.Start)
		}
	})

	t.Run("unknown filter", func(t *testing.T) {
		if _, err := ResolveDateFilter("fortnight", nil, nil, now, loc); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestParseReportFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseReportFormat(" PDF ")
	if err != nil || f != ReportPDF || f.Extension() != ".pdf" {
		t.Fatalf("expected pdf, got %q %v", f, err)
	}
	if _, err := ParseReportFormat("csv"); !errors.Is(err, ErrInvalidReportFormat) {
		t.Fatalf("expected ErrInvalidReportFormat, got %v", err)
	}
}
