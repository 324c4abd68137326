package db

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsync-backend-go/internal/models"
)

func TestNewFirestoreContactRepository_NilLoggerDefaultsToNop(t *testing.T) {
	repo := NewFirestoreContactRepository(nil, nil)
	require.NotNil(t, repo)
	fr, ok := repo.(*firestoreContactRepository)
	require.True(t, ok)
	assert.NotNil(t, fr.logger, "a nil logger must be replaced so decode-skip warnings never panic")
}

func TestContactInfoUpdates_WritesAllInfoFields(t *testing.T) {
	contact := &models.Contact{
		ID:     "c1",
		UserID: "user-1",
		ContactInfo: models.ContactInfo{
			FullName:        "Jane Doe",
			JobTitle:        "CTO",
			CompanyName:     "Acme Corp",
			PhoneNumber:     "555-123-4567",
			EmailAddress:    "jane@acme.com",
			PhysicalAddress: "123 Main St Springfield",
		},
	}

	updates := contactInfoUpdates(contact)
	require.Len(t, updates, 6)

	byPath := map[string]interface{}{}
	for _, u := range updates {
		byPath[u.Path] = u.Value
	}
	assert.Equal(t, "Jane Doe", byPath["fullName"])
	assert.Equal(t, "CTO", byPath["jobTitle"])
	assert.Equal(t, "Acme Corp", byPath["companyName"])
	assert.Equal(t, "555-123-4567", byPath["phoneNumber"])
	assert.Equal(t, "jane@acme.com", byPath["emailAddress"])
	assert.Equal(t, "123 Main St Springfield", byPath["physicalAddress"])
}

func TestContactInfoUpdates_EmptyFieldBecomesDelete(t *testing.T) {
	// An empty string must translate to a field delete. A struct merge would
	// drop the field from the write entirely, leaving the old value behind.
	contact := &models.Contact{
		ID:     "c1",
		UserID: "user-1",
		ContactInfo: models.ContactInfo{
			FullName: "Jane Doe",
		},
	}

	byPath := map[string]interface{}{}
	for _, u := range contactInfoUpdates(contact) {
		byPath[u.Path] = u.Value
	}
	assert.Equal(t, "Jane Doe", byPath["fullName"])
	for _, path := range []string{"jobTitle", "companyName", "phoneNumber", "emailAddress", "physicalAddress"} {
		assert.Equal(t, firestore.Delete, byPath[path], "path %q", path)
	}
}

func TestContactInfoUpdates_NeverTouchesAttachmentsOrOwnership(t *testing.T) {
	contact := &models.Contact{
		ID:           "c1",
		UserID:       "user-1",
		ImageURL:     "https://example.com/img",
		VoiceNoteURL: "https://example.com/voice",
	}

	for _, u := range contactInfoUpdates(contact) {
		assert.NotContains(t, []string{"imageUrl", "voiceNoteUrl", "userId", "createdAt"}, u.Path)
	}
}
