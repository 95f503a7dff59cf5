package domain

import (
	"fmt"
	"time"
)

// AlertType distinguishes alert sources in the feed.
type AlertType string

const (
	AlertReconciliation AlertType = "RECONCILIATION"
	AlertPendingDeal    AlertType = "PENDING_DEAL"
)

// Alert is one entry of the reconciliation alert feed.
type Alert struct {
	ID         string
	AlertType  AlertType
	Title      string
	Message    string
	Status     string
	OccurredAt time.Time
	CreatedAt  string // humanized relative to the time the feed was built
}

// ReconciliationAlert builds the alert raised by a Short or Excess reconciliation.
func ReconciliationAlert(r *Reconciliation, now time.Time, loc *time.Location) Alert {
	return Alert{
		ID:         r.ID,
		AlertType:  AlertReconciliation,
		Title:      fmt.Sprintf("Reconciliation %s", r.Status),
		Message:    fmt.Sprintf("Reconciliation of %s is %s", r.CreatedAt.In(loc).Format("02 Jan 2006"), r.Status),
		Status:     string(r.Status),
		OccurredAt: r.CreatedAt,
		CreatedAt:  HumanizeSince(r.CreatedAt, now, loc),
	}
}

// PendingDealAlert builds the alert raised by a deal awaiting action.
func PendingDealAlert(d *Deal, now time.Time, loc *time.Location) Alert {
	who := "customer"
	if d.Customer != nil && d.Customer.Name != "" {
		who = d.Customer.Name
	}
	return Alert{
		ID:         d.ID,
		AlertType:  AlertPendingDeal,
		Title:      "Pending deal",
		Message:    fmt.Sprintf("Deal %s (%s) with %s is pending", d.DealNumber, d.DealType, who),
		Status:     d.Status,
		OccurredAt: d.CreatedAt,
		CreatedAt:  HumanizeSince(d.CreatedAt, now, loc),
	}
}

// HumanizeSince renders t relative to now, e.g. "Just now", "5 mins ago", "Yesterday".
// Anything a week or older is rendered as a date in loc.
func HumanizeSince(t, now time.Time, loc *time.Location) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return plural(int(elapsed/time.Minute), "min")
	case elapsed < 24*time.Hour:
		return plural(int(elapsed/time.Hour), "hour")
	}

	days := int(elapsed / (24 * time.Hour))
	switch {
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.In(loc).Format("02 Jan 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
