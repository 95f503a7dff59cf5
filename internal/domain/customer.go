package domain

import "time"

// CustomerInactivityWindow is how long a customer may go without a deal before the
// deal listing sweep deactivates them.
const CustomerInactivityWindow = 15 * 24 * time.Hour

// Customer is a counterparty of deals.
type Customer struct {
	ID          string
	Name        string
	PhoneNumber string
	Email       string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InactivityCutoff returns the instant before which a customer's last activity makes it stale.
func InactivityCutoff(now time.Time) time.Time {
	return now.Add(-CustomerInactivityWindow)
}

// IsStale reports whether the customer should be deactivated. lastDealAt is nil when the
// customer never had a deal, in which case the creation date is used.
func (c *Customer) IsStale(lastDealAt *time.Time, now time.Time) bool {
	last := c.CreatedAt
	if lastDealAt != nil {
		last = *lastDealAt
	}
	return last.Before(InactivityCutoff(now))
}
