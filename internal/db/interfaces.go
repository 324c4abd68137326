package db

import (
	"context"

	"cardsync-backend-go/internal/models"
)

// UserRepository defines the interface for user-profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
	// GetOrCreate returns the stored profile, creating it inside a single
	// transaction when absent. The bool reports whether a profile was created.
	GetOrCreate(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, bool, error)
	SetBillingCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscription(ctx context.Context, userID string, plan models.SubscriptionPlan, subscriptionID, status string) error
	GetByBillingCustomerID(ctx context.Context, customerID string) (*models.UserProfile, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.UserProfile, error)
}

// ContactRepository defines the interface for contact storage operations.
// CreateWithQuota and DeleteWithCount are the only writers of the profile's
// contactCount; both run as single isolated Firestore transactions.
type ContactRepository interface {
	// CreateWithQuota atomically checks the owner's plan limit, creates the
	// contact with a fresh id, and increments the owner's contact counter.
	// Returns ErrQuotaExceeded without side effects when the owner is at or
	// over the limit.
	CreateWithQuota(ctx context.Context, ownerID string, contact *models.Contact) (*models.Contact, error)
	// DeleteWithCount atomically deletes the contact (after an ownership
	// check) and decrements the owner's counter, floored at zero. Returns
	// the deleted contact so callers can release its attachments.
	DeleteWithCount(ctx context.Context, ownerID, contactID string) (*models.Contact, error)
	GetByID(ctx context.Context, contactID string) (*models.Contact, error)
	GetByOwnerID(ctx context.Context, ownerID string, paginationParams map[string]string) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	// SetAttachmentURLs is the follow-up write that records uploaded blob
	// references after the create transaction has committed.
	SetAttachmentURLs(ctx context.Context, contactID, imageURL, voiceNoteURL string) error
}

// AuditRepository defines the interface for activity-log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
