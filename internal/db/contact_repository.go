package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cardsync-backend-go/internal/models"
)

const contactsCollection = "contacts"

var (
	// ErrQuotaExceeded is returned by CreateWithQuota when the owner's
	// contact count has reached the plan limit. The transaction aborts with
	// no contact created and no counter change.
	ErrQuotaExceeded = errors.New("contact limit reached for the current plan")
	// ErrForbidden is returned when a contact exists but belongs to a
	// different owner.
	ErrForbidden = errors.New("contact is owned by a different user")
)

// firestoreContactRepository implements the ContactRepository interface using
// Firestore.
type firestoreContactRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreContactRepository creates a new instance of firestoreContactRepository.
func NewFirestoreContactRepository(client *firestore.Client, logger *zap.Logger) ContactRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &firestoreContactRepository{client: client, logger: logger}
}

// CreateWithQuota performs the quota-gated create as one isolated
// read-modify-write: read the owner's profile, compare contactCount against
// the plan limit, then create the contact document and bump the counter.
// Two concurrent creates at limit-1 serialize through Firestore's optimistic
// transaction retry, so exactly one succeeds.
func (r *firestoreContactRepository) CreateWithQuota(ctx context.Context, ownerID string, contact *models.Contact) (*models.Contact, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for CreateWithQuota operation")
	}
	if contact == nil {
		return nil, errors.New("contact cannot be nil for CreateWithQuota operation")
	}
	if contact.ID != "" {
		return nil, errors.New("contact must not have an ID before creation")
	}

	userRef := r.client.Collection(usersCollection).Doc(ownerID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		userSnap, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("user profile '%s' not found: %w", ownerID, ErrNotFound)
			}
			return err
		}

		var profile models.UserProfile
		if err := userSnap.DataTo(&profile); err != nil {
			return fmt.Errorf("failed to decode user profile '%s': %w", ownerID, err)
		}

		limit := models.PlanLimit(profile.SubscriptionPlan)
		if profile.ContactCount >= limit {
			return fmt.Errorf("%w: plan '%s' allows %d contact(s), current count %d",
				ErrQuotaExceeded, profile.SubscriptionPlan, limit, profile.ContactCount)
		}

		contactRef := r.client.Collection(contactsCollection).NewDoc()
		contact.ID = contactRef.ID
		contact.UserID = ownerID
		// CreatedAt is assigned server-side via the serverTimestamp tag.

		if err := tx.Create(contactRef, contact); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "contactCount", Value: profile.ContactCount + 1},
		})
	})
	if err != nil {
		// Clear any ID assigned by an aborted attempt so the caller's input
		// stays id-less, matching the precondition for a retry.
		contact.ID = ""
		if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("quota-gated create for owner '%s' failed: %w", ownerID, err)
	}

	return contact, nil
}

// DeleteWithCount deletes the contact and decrements the owner's counter in
// one transaction. The counter never goes below zero, even if it was already
// inconsistent with the real row count.
func (r *firestoreContactRepository) DeleteWithCount(ctx context.Context, ownerID, contactID string) (*models.Contact, error) {
	if ownerID == "" || contactID == "" {
		return nil, errors.New("ownerID and contactID are required for DeleteWithCount operation")
	}

	userRef := r.client.Collection(usersCollection).Doc(ownerID)
	contactRef := r.client.Collection(contactsCollection).Doc(contactID)

	var deleted models.Contact
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Reads first: Firestore transactions require all reads before writes.
		userSnap, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("user profile '%s' not found: %w", ownerID, ErrNotFound)
			}
			return err
		}
		contactSnap, err := tx.Get(contactRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("contact '%s' not found: %w", contactID, ErrNotFound)
			}
			return err
		}

		if err := contactSnap.DataTo(&deleted); err != nil {
			return fmt.Errorf("failed to decode contact '%s': %w", contactID, err)
		}
		deleted.ID = contactSnap.Ref.ID
		if deleted.UserID != ownerID {
			return fmt.Errorf("contact '%s': %w", contactID, ErrForbidden)
		}

		var profile models.UserProfile
		if err := userSnap.DataTo(&profile); err != nil {
			return fmt.Errorf("failed to decode user profile '%s': %w", ownerID, err)
		}
		newCount := profile.ContactCount - 1
		if newCount < 0 {
			newCount = 0
		}

		if err := tx.Delete(contactRef); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "contactCount", Value: newCount},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("counted delete of contact '%s' failed: %w", contactID, err)
	}

	return &deleted, nil
}

// GetByID retrieves a contact document from Firestore by its ID.
func (r *firestoreContactRepository) GetByID(ctx context.Context, contactID string) (*models.Contact, error) {
	if contactID == "" {
		return nil, errors.New("contactID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(contactsCollection).Doc(contactID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("contact '%s' not found: %w", contactID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact '%s': %w", contactID, err)
	}

	var contact models.Contact
	if err := docSnap.DataTo(&contact); err != nil {
		return nil, fmt.Errorf("failed to decode contact '%s': %w", contactID, err)
	}
	contact.ID = docSnap.Ref.ID

	return &contact, nil
}

// GetByOwnerID retrieves all contacts owned by a user, newest first.
// Pagination is basic: supports "limit" and "startAfter" (document ID).
func (r *firestoreContactRepository) GetByOwnerID(ctx context.Context, ownerID string, paginationParams map[string]string) ([]*models.Contact, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for GetByOwnerID operation")
	}

	query := r.client.Collection(contactsCollection).
		Where("userId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc)

	if limitStr, ok := paginationParams["limit"]; ok {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}
	if startAfterDocID, ok := paginationParams["startAfter"]; ok && startAfterDocID != "" {
		startAfterSnap, err := r.client.Collection(contactsCollection).Doc(startAfterDocID).Get(ctx)
		if err == nil {
			query = query.StartAfter(startAfterSnap)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var contacts []*models.Contact
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate contacts for owner '%s': %w", ownerID, err)
		}

		var contact models.Contact
		if err := doc.DataTo(&contact); err != nil {
			// Skip documents that fail to decode rather than failing the
			// whole listing, but leave a trace so a listing that diverges
			// from the profile's contactCount can be diagnosed.
			r.logger.Warn("skipping contact document that failed to decode",
				zap.String("contactId", doc.Ref.ID), zap.Error(err))
			continue
		}
		contact.ID = doc.Ref.ID
		contacts = append(contacts, &contact)
	}

	return contacts, nil
}

// Update overwrites the card-derived fields of an existing contact with the
// model's current values. Explicit field paths are used instead of a struct
// merge: the model's omitempty tags would otherwise drop empty strings from
// the write, making it impossible to clear a field. An empty value deletes
// the stored field, keeping "cleared" and "never detected" indistinguishable
// as the data model intends. Ownership, creation time and attachment URLs
// are never touched here (attachments go through SetAttachmentURLs).
func (r *firestoreContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	if contact == nil || contact.ID == "" {
		return errors.New("contact with non-empty ID is required for Update operation")
	}

	_, err := r.client.Collection(contactsCollection).Doc(contact.ID).Update(ctx, contactInfoUpdates(contact))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("contact '%s' not found: %w", contact.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update contact '%s': %w", contact.ID, err)
	}
	return nil
}

// contactInfoUpdates builds the field-path writes for Update. Empty strings
// become firestore.Delete so a cleared field is removed from the document
// instead of being silently skipped by the omitempty tags.
func contactInfoUpdates(contact *models.Contact) []firestore.Update {
	fieldValue := func(v string) interface{} {
		if v == "" {
			return firestore.Delete
		}
		return v
	}
	return []firestore.Update{
		{Path: "fullName", Value: fieldValue(contact.FullName)},
		{Path: "jobTitle", Value: fieldValue(contact.JobTitle)},
		{Path: "companyName", Value: fieldValue(contact.CompanyName)},
		{Path: "phoneNumber", Value: fieldValue(contact.PhoneNumber)},
		{Path: "emailAddress", Value: fieldValue(contact.EmailAddress)},
		{Path: "physicalAddress", Value: fieldValue(contact.PhysicalAddress)},
	}
}

// SetAttachmentURLs writes blob references back onto a contact after upload.
// Empty arguments leave the corresponding field untouched so a photo upload
// cannot clobber an existing voice note, and vice versa.
func (r *firestoreContactRepository) SetAttachmentURLs(ctx context.Context, contactID, imageURL, voiceNoteURL string) error {
	if contactID == "" {
		return errors.New("contactID cannot be empty for SetAttachmentURLs operation")
	}
	var updates []firestore.Update
	if imageURL != "" {
		updates = append(updates, firestore.Update{Path: "imageUrl", Value: imageURL})
	}
	if voiceNoteURL != "" {
		updates = append(updates, firestore.Update{Path: "voiceNoteUrl", Value: voiceNoteURL})
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := r.client.Collection(contactsCollection).Doc(contactID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("contact '%s' not found: %w", contactID, ErrNotFound)
		}
		return fmt.Errorf("failed to set attachment urls on contact '%s': %w", contactID, err)
	}
	return nil
}
