package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cardsync-backend-go/internal/models"
)

const usersCollection = "users"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// GetByID retrieves a user profile by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user profile '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user profile '%s': %w", userID, err)
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user profile '%s': %w", userID, err)
	}
	profile.ID = docSnap.Ref.ID

	return &profile, nil
}

// GetOrCreate returns the stored profile for profile.ID, creating it when
// absent. The read and the conditional create run inside one transaction so
// two racing first requests cannot both create (one transaction retries and
// observes the other's write).
func (r *firestoreUserRepository) GetOrCreate(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, bool, error) {
	if profile == nil || profile.ID == "" {
		return nil, false, errors.New("profile with non-empty ID is required for GetOrCreate operation")
	}

	docRef := r.client.Collection(usersCollection).Doc(profile.ID)
	created := false
	result := profile

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			created = true
			result = profile
			return tx.Create(docRef, profile)
		}

		var existing models.UserProfile
		if err := docSnap.DataTo(&existing); err != nil {
			return fmt.Errorf("failed to decode user profile '%s': %w", profile.ID, err)
		}
		existing.ID = docSnap.Ref.ID
		result = &existing
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get-or-create for user profile '%s' failed: %w", profile.ID, err)
	}

	return result, created, nil
}

// SetBillingCustomerID records the payment provider's customer reference.
func (r *firestoreUserRepository) SetBillingCustomerID(ctx context.Context, userID, customerID string) error {
	if userID == "" || customerID == "" {
		return errors.New("userID and customerID are required for SetBillingCustomerID operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "billingCustomerId", Value: customerID},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user profile '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to set billing customer id for user '%s': %w", userID, err)
	}
	return nil
}

// SetSubscription updates the plan fields mutated by the billing flow. Only
// these fields change; the contact counter is never touched here.
func (r *firestoreUserRepository) SetSubscription(ctx context.Context, userID string, plan models.SubscriptionPlan, subscriptionID, subStatus string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for SetSubscription operation")
	}
	updates := []firestore.Update{
		{Path: "subscriptionPlan", Value: string(plan)},
		{Path: "subscriptionId", Value: subscriptionID},
		{Path: "subscriptionStatus", Value: subStatus},
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user profile '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update subscription for user '%s': %w", userID, err)
	}
	return nil
}

// GetByBillingCustomerID finds the profile linked to a payment-provider
// customer. Used by webhook processing, where only the customer reference is
// known.
func (r *firestoreUserRepository) GetByBillingCustomerID(ctx context.Context, customerID string) (*models.UserProfile, error) {
	return r.getByField(ctx, "billingCustomerId", customerID)
}

// GetBySubscriptionID finds the profile linked to a subscription reference.
func (r *firestoreUserRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.UserProfile, error) {
	return r.getByField(ctx, "subscriptionId", subscriptionID)
}

func (r *firestoreUserRepository) getByField(ctx context.Context, field, value string) (*models.UserProfile, error) {
	if value == "" {
		return nil, fmt.Errorf("%s cannot be empty for profile lookup", field)
	}
	iter := r.client.Collection(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no user profile with %s '%s': %w", field, value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user profile by %s: %w", field, err)
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user profile '%s': %w", docSnap.Ref.ID, err)
	}
	profile.ID = docSnap.Ref.ID
	return &profile, nil
}
