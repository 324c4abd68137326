package core

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/models"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeUserRepo(profiles ...*models.UserProfile) *fakeUserRepo {
	r := &fakeUserRepo{profiles: make(map[string]*models.UserProfile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user profile '%s' not found: %w", userID, db.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeUserRepo) GetOrCreate(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[profile.ID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	stored := *profile
	r.profiles[profile.ID] = &stored
	copied := stored
	return &copied, true, nil
}

func (r *fakeUserRepo) SetBillingCustomerID(ctx context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return fmt.Errorf("user profile '%s' not found: %w", userID, db.ErrNotFound)
	}
	p.BillingCustomerID = customerID
	return nil
}

func (r *fakeUserRepo) SetSubscription(ctx context.Context, userID string, plan models.SubscriptionPlan, subscriptionID, subStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return fmt.Errorf("user profile '%s' not found: %w", userID, db.ErrNotFound)
	}
	p.SubscriptionPlan = plan
	p.SubscriptionID = subscriptionID
	p.SubscriptionStatus = subStatus
	return nil
}

func (r *fakeUserRepo) GetByBillingCustomerID(ctx context.Context, customerID string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.BillingCustomerID == customerID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no user profile with customer '%s': %w", customerID, db.ErrNotFound)
}

func (r *fakeUserRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.SubscriptionID == subscriptionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no user profile with subscription '%s': %w", subscriptionID, db.ErrNotFound)
}

func (r *fakeUserRepo) snapshot(userID string) models.UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.profiles[userID]
}

const testWebhookSecret = "whsec_test_secret"

func testBillingConfig() BillingConfig {
	return BillingConfig{
		WebhookSecret:   testWebhookSecret,
		PlanToPriceID:   map[string]string{"pro": "price_pro", "business": "price_biz"},
		PriceIDToPlan:   map[string]string{"price_pro": "pro", "price_biz": "business"},
		SuccessURL:      "https://app.test/dashboard?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       "https://app.test/pricing",
		PortalReturnURL: "https://app.test/dashboard",
	}
}

func newTestBillingService(repo *fakeUserRepo) BillingService {
	return NewBillingService(repo, &client.API{}, testBillingConfig(), &fakeAuditService{}, zap.NewNop())
}

// signedHeader produces a Stripe-Signature header for the payload using the
// documented t=<ts>,v1=<hmac-sha256> scheme.
func signedHeader(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleWebhookEvent_BadSignature(t *testing.T) {
	svc := newTestBillingService(newFakeUserRepo())
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{}}}`)

	err := svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, "whsec_wrong"))
	assert.ErrorIs(t, err, ErrWebhookSignature)
}

func TestHandleWebhookEvent_SubscriptionUpdated(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{
		ID:                "user-1",
		SubscriptionPlan:  models.PlanFree,
		BillingCustomerID: "cus_1",
	})
	svc := newTestBillingService(repo)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{` +
		`"id":"sub_1","object":"subscription","status":"active","customer":"cus_1",` +
		`"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_pro"}}]}}}}`)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))

	profile := repo.snapshot("user-1")
	assert.Equal(t, models.PlanPro, profile.SubscriptionPlan)
	assert.Equal(t, "sub_1", profile.SubscriptionID)
	assert.Equal(t, "active", profile.SubscriptionStatus)
}

func TestHandleWebhookEvent_UnknownPriceDropped(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{
		ID:                "user-1",
		SubscriptionPlan:  models.PlanFree,
		BillingCustomerID: "cus_1",
	})
	svc := newTestBillingService(repo)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{` +
		`"id":"sub_1","object":"subscription","status":"active","customer":"cus_1",` +
		`"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_mystery"}}]}}}}`)

	// Unrecognized price ids must not fail the delivery or touch the profile.
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))
	assert.Equal(t, models.PlanFree, repo.snapshot("user-1").SubscriptionPlan)
}

func TestHandleWebhookEvent_SubscriptionDeleted(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{
		ID:                 "user-1",
		SubscriptionPlan:   models.PlanPro,
		BillingCustomerID:  "cus_1",
		SubscriptionID:     "sub_1",
		SubscriptionStatus: "active",
	})
	svc := newTestBillingService(repo)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{` +
		`"id":"sub_1","object":"subscription","status":"canceled","customer":"cus_1"}}}`)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))

	profile := repo.snapshot("user-1")
	assert.Equal(t, models.PlanFree, profile.SubscriptionPlan)
	assert.Empty(t, profile.SubscriptionID)
	assert.Equal(t, "canceled", profile.SubscriptionStatus)
}

func TestHandleWebhookEvent_CheckoutCompleted(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{
		ID:               "user-1",
		SubscriptionPlan: models.PlanFree,
	})
	svc := newTestBillingService(repo)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{` +
		`"id":"cs_1","object":"checkout.session","customer":"cus_9","subscription":"sub_9",` +
		`"metadata":{"userId":"user-1","plan":"business"}}}}`)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))

	profile := repo.snapshot("user-1")
	assert.Equal(t, models.PlanBusiness, profile.SubscriptionPlan)
	assert.Equal(t, "cus_9", profile.BillingCustomerID)
	assert.Equal(t, "sub_9", profile.SubscriptionID)
	assert.Equal(t, "active", profile.SubscriptionStatus)
}

func TestHandleWebhookEvent_UnknownUserDropped(t *testing.T) {
	svc := newTestBillingService(newFakeUserRepo())

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{` +
		`"id":"sub_ghost","object":"subscription","status":"canceled","customer":"cus_ghost"}}}`)

	assert.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))
}

func TestHandleWebhookEvent_IgnoredEventType(t *testing.T) {
	svc := newTestBillingService(newFakeUserRepo())
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	assert.NoError(t, svc.HandleWebhookEvent(context.Background(), payload, signedHeader(payload, testWebhookSecret)))
}

func TestCreateCheckoutSession_UnknownPlan(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{ID: "user-1"})
	svc := newTestBillingService(repo)

	_, err := svc.CreateCheckoutSession(context.Background(), "user-1", "jane@example.com", "platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreatePortalSession_RequiresLinkedCustomer(t *testing.T) {
	repo := newFakeUserRepo(&models.UserProfile{ID: "user-1"})
	svc := newTestBillingService(repo)

	_, err := svc.CreatePortalSession(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrUserStripeNotLinked)
}
