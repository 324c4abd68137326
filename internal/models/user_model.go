package models

import "time"

// SubscriptionPlan is a billing tier. The zero value is not valid; profiles
// are always created on the free plan.
type SubscriptionPlan string

const (
	PlanFree     SubscriptionPlan = "free"
	PlanPro      SubscriptionPlan = "pro"
	PlanBusiness SubscriptionPlan = "business"
)

// planLimits maps each tier to the maximum number of contacts it may own
// concurrently.
var planLimits = map[SubscriptionPlan]int64{
	PlanFree:     10,
	PlanPro:      1000,
	PlanBusiness: 10000,
}

// PlanLimit returns the contact limit for a plan. Unknown plans fall back to
// the free limit so that a bad plan string can never grant unlimited saves.
func PlanLimit(plan SubscriptionPlan) int64 {
	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	return planLimits[PlanFree]
}

// ValidPlan reports whether plan is one of the known tiers.
func ValidPlan(plan SubscriptionPlan) bool {
	_, ok := planLimits[plan]
	return ok
}

// UserProfile represents a user in the system.
type UserProfile struct {
	ID               string           `json:"id" firestore:"-"` // Firebase Auth UID, will be the document ID
	Email            string           `json:"email" firestore:"email"`
	SubscriptionPlan SubscriptionPlan `json:"subscriptionPlan" firestore:"subscriptionPlan"`

	// ContactCount is maintained exclusively by the quota-gated create and
	// delete transactions; it is the single source of truth for quota checks.
	ContactCount int64 `json:"contactCount" firestore:"contactCount"`

	BillingCustomerID  string `json:"billingCustomerId,omitempty" firestore:"billingCustomerId,omitempty"`
	SubscriptionID     string `json:"subscriptionId,omitempty" firestore:"subscriptionId,omitempty"`
	SubscriptionStatus string `json:"subscriptionStatus,omitempty" firestore:"subscriptionStatus,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// AtLimit reports whether the profile has no room for another contact.
func (p *UserProfile) AtLimit() bool {
	return p.ContactCount >= PlanLimit(p.SubscriptionPlan)
}
