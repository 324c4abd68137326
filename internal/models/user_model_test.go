package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanLimit(t *testing.T) {
	assert.EqualValues(t, 10, PlanLimit(PlanFree))
	assert.EqualValues(t, 1000, PlanLimit(PlanPro))
	assert.EqualValues(t, 10000, PlanLimit(PlanBusiness))
	assert.EqualValues(t, 10, PlanLimit("enterprise"), "unknown plans fall back to the free limit")
}

func TestAtLimit(t *testing.T) {
	p := &UserProfile{SubscriptionPlan: PlanFree, ContactCount: 9}
	assert.False(t, p.AtLimit())
	p.ContactCount = 10
	assert.True(t, p.AtLimit())
	p.ContactCount = 11
	assert.True(t, p.AtLimit())
}

func TestValidPlan(t *testing.T) {
	assert.True(t, ValidPlan(PlanPro))
	assert.False(t, ValidPlan("platinum"))
	assert.False(t, ValidPlan(""))
}

func TestUpdateContactRequestApplyTo(t *testing.T) {
	contact := &Contact{
		ContactInfo: ContactInfo{
			FullName:     "Jane Doe",
			JobTitle:     "Engineer",
			EmailAddress: "jane@acme.com",
		},
	}

	newTitle := "CTO"
	cleared := ""
	req := UpdateContactRequest{
		JobTitle:     &newTitle,
		EmailAddress: &cleared,
	}
	req.ApplyTo(contact)

	assert.Equal(t, "Jane Doe", contact.FullName, "nil fields stay untouched")
	assert.Equal(t, "CTO", contact.JobTitle)
	assert.Empty(t, contact.EmailAddress, "an explicit empty string clears the field")
}

func TestContactInfoEmpty(t *testing.T) {
	assert.True(t, ContactInfo{}.Empty())
	assert.False(t, ContactInfo{PhoneNumber: "555-123-4567"}.Empty())
}
