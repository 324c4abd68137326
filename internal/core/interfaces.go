package core

import (
	"context"

	"cardsync-backend-go/internal/models"
)

// UserService defines the interface for user-profile operations.
type UserService interface {
	// GetOrCreate retrieves the profile for a user ID, creating it with the
	// free plan and a zero contact count on first authenticated access. The
	// bool reports whether a profile was created.
	GetOrCreate(ctx context.Context, userID, email string) (*models.UserProfile, bool, error)
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
}

// ContactService defines the interface for contact operations.
type ContactService interface {
	CreateContact(ctx context.Context, userID string, req models.SaveContactRequest) (*models.Contact, error)
	GetContactByID(ctx context.Context, userID, contactID string) (*models.Contact, error)
	ListContacts(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Contact, error)
	UpdateContact(ctx context.Context, userID, contactID string, req models.UpdateContactRequest) (*models.Contact, error)
	// AttachVoiceNote uploads a new voice memo for an existing contact and
	// records its URL.
	AttachVoiceNote(ctx context.Context, userID, contactID, voiceNoteData string) (*models.Contact, error)
	DeleteContact(ctx context.Context, userID, contactID string) error
}

// ExtractionService turns a card image or pre-recognized text into a partial
// contact record.
type ExtractionService interface {
	Extract(ctx context.Context, req models.ExtractRequest) (models.ContactInfo, error)
}

// BillingService defines the interface for subscription and payment operations.
type BillingService interface {
	// CreateCheckoutSession returns the hosted checkout URL for upgrading to
	// the given plan, creating the payment-provider customer if needed.
	CreateCheckoutSession(ctx context.Context, userID, email, plan string) (string, error)
	// ConfirmCheckout verifies a completed checkout session and applies the
	// purchased plan to the user's profile.
	ConfirmCheckout(ctx context.Context, userID, sessionID string) (*models.UserProfile, error)
	CreatePortalSession(ctx context.Context, userID string) (string, error)
	// HandleWebhookEvent verifies the event signature and applies
	// subscription lifecycle changes to the affected profile.
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error
}

// ExportService renders a contact list into downloadable formats.
type ExportService interface {
	ExportCSV(contacts []*models.Contact) ([]byte, error)
	ExportXLSX(contacts []*models.Contact) ([]byte, error)
}

// AuditService defines the interface for activity logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
