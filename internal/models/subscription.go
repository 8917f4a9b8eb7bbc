// internal/models/subscription.go
package models

type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

func (p Plan) Paid() bool {
	return p == PlanMonthly || p == PlanYearly
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// Subscription mirrors GET /subscriptions/{id}. EndDate is kept raw because
// the API is not consistent about its format.
type Subscription struct {
	Plan      Plan               `json:"plan"`
	Status    SubscriptionStatus `json:"status"`
	StartDate string             `json:"start_date,omitempty"`
	EndDate   string             `json:"end_date,omitempty"`
}

// IsEmpty reports whether the API answered with an empty object.
func (s *Subscription) IsEmpty() bool {
	return s == nil || (s.Plan == "" && s.Status == "" && s.StartDate == "" && s.EndDate == "")
}
