// Package subscription decides whether a user may use the tutor.
package subscription

import (
	"errors"
	"math"
	"strings"
	"time"

	"arabic-chatbot.app/internal/models"
)

type State string

const (
	StateNone     State = "none"
	StateInactive State = "inactive"
	StateExpired  State = "expired"
	StateGranted  State = "granted"
)

// Decision is the outcome of evaluating one subscription record.
type Decision struct {
	State         State       `json:"state"`
	Plan          models.Plan `json:"plan,omitempty"`
	EndDate       time.Time   `json:"end_date"`
	RemainingDays int         `json:"remaining_days"`
}

func (d Decision) Granted() bool {
	return d.State == StateGranted
}

func (d Decision) IsTrial() bool {
	return d.Granted() && d.Plan == models.PlanTrial
}

func (d Decision) IsPaid() bool {
	return d.Granted() && d.Plan.Paid()
}

var ErrInvalidEndDate = errors.New("subscription: invalid end date")

var endDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseEndDate accepts RFC 3339, a zone-less ISO timestamp (UTC) or a bare date.
func ParseEndDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidEndDate
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidEndDate
}

// Evaluate applies the access rule: active status AND end date after now.
// Expiry wins over the status flag. A nil or empty record means no subscription.
func Evaluate(sub *models.Subscription, now time.Time) Decision {
	if sub.IsEmpty() {
		return Decision{State: StateNone}
	}

	d := Decision{Plan: sub.Plan}
	end, err := ParseEndDate(sub.EndDate)
	if err == nil {
		d.EndDate = end
		d.RemainingDays = RemainingDays(end, now)
	}

	switch {
	case sub.Status != models.SubscriptionStatusActive:
		d.State = StateInactive
	case err != nil || !end.After(now):
		d.State = StateExpired
	default:
		d.State = StateGranted
	}
	return d
}

// RemainingDays rounds the time left up to whole days and never goes below zero.
func RemainingDays(end, now time.Time) int {
	diff := end.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
