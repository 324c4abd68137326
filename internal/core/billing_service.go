package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/models"
)

// Custom errors for the BillingService
var (
	ErrPlanNotFound        = errors.New("plan or price ID not found")
	ErrStripeClient        = errors.New("stripe client operation failed")
	ErrWebhookProcessing   = errors.New("stripe webhook processing failed")
	ErrWebhookSignature    = errors.New("stripe webhook signature verification failed")
	ErrUserStripeNotLinked = errors.New("user does not have a Stripe customer ID")
	ErrCheckoutNotPaid     = errors.New("checkout session is not paid")
	ErrCheckoutWrongUser   = errors.New("checkout session belongs to a different user")
)

// BillingConfig carries the Stripe wiring the service needs.
type BillingConfig struct {
	WebhookSecret string
	// PlanToPriceID maps plan names ("pro", "business") to Stripe price ids.
	PlanToPriceID map[string]string
	// PriceIDToPlan is the inverse mapping, used by webhook processing.
	PriceIDToPlan map[string]string
	// SuccessURL and CancelURL are the checkout redirect targets.
	SuccessURL string
	CancelURL  string
	// PortalReturnURL is where the billing portal sends the user back.
	PortalReturnURL string
}

// billingService implements the BillingService interface on top of the
// injected Stripe API client.
type billingService struct {
	userRepo     db.UserRepository
	stripeClient *client.API
	cfg          BillingConfig
	auditService AuditService
	logger       *zap.Logger
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(ur db.UserRepository, sc *client.API, cfg BillingConfig, as AuditService, logger *zap.Logger) BillingService {
	return &billingService{
		userRepo:     ur,
		stripeClient: sc,
		cfg:          cfg,
		auditService: as,
		logger:       logger,
	}
}

// ensureCustomer returns the Stripe customer id for the user, creating the
// customer on first use and persisting the reference.
func (s *billingService) ensureCustomer(ctx context.Context, profile *models.UserProfile, email string) (string, error) {
	if profile.BillingCustomerID != "" {
		return profile.BillingCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	params.AddMetadata("firebaseUID", profile.ID)

	customer, err := s.stripeClient.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrStripeClient, err)
	}
	if err := s.userRepo.SetBillingCustomerID(ctx, profile.ID, customer.ID); err != nil {
		return "", fmt.Errorf("failed to persist billing customer id for user '%s': %w", profile.ID, err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession starts a subscription checkout for the requested
// plan and returns the hosted payment page URL.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID, email, plan string) (string, error) {
	if s.userRepo == nil || s.stripeClient == nil {
		return "", errors.New("billingService: component not initialized")
	}

	priceID, ok := s.cfg.PlanToPriceID[plan]
	if !ok || priceID == "" {
		return "", fmt.Errorf("%w: plan '%s'", ErrPlanNotFound, plan)
	}

	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: id '%s'", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to load profile for checkout: %w", err)
	}

	customerID, err := s.ensureCustomer(ctx, profile, email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("plan", plan)

	session, err := s.stripeClient.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", ErrStripeClient, err)
	}
	return session.URL, nil
}

// ConfirmCheckout verifies a completed session from the success redirect and
// applies the purchased plan. The webhook normally arrives first; this path
// covers the user landing back before the webhook is processed.
func (s *billingService) ConfirmCheckout(ctx context.Context, userID, sessionID string) (*models.UserProfile, error) {
	session, err := s.stripeClient.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session: %v", ErrStripeClient, err)
	}

	if session.Metadata["userId"] != userID {
		return nil, fmt.Errorf("%w: session '%s'", ErrCheckoutWrongUser, sessionID)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, fmt.Errorf("%w: status '%s'", ErrCheckoutNotPaid, session.PaymentStatus)
	}

	plan := models.SubscriptionPlan(session.Metadata["plan"])
	if !models.ValidPlan(plan) {
		return nil, fmt.Errorf("%w: plan '%s' from session metadata", ErrPlanNotFound, session.Metadata["plan"])
	}

	var subscriptionID string
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if session.Customer != nil {
		if err := s.userRepo.SetBillingCustomerID(ctx, userID, session.Customer.ID); err != nil {
			s.logger.Warn("failed to persist billing customer id on confirm",
				zap.String("userId", userID), zap.Error(err))
		}
	}
	if err := s.userRepo.SetSubscription(ctx, userID, plan, subscriptionID, "active"); err != nil {
		return nil, fmt.Errorf("failed to apply plan '%s' to user '%s': %w", plan, userID, err)
	}

	s.recordPlanChange(ctx, userID, string(plan), "checkout_confirm")
	return s.userRepo.GetByID(ctx, userID)
}

// CreatePortalSession returns a billing-portal URL for subscription
// self-management. Requires the user to already be a Stripe customer.
func (s *billingService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: id '%s'", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to load profile for portal session: %w", err)
	}
	if profile.BillingCustomerID == "" {
		return "", fmt.Errorf("%w: user '%s'", ErrUserStripeNotLinked, userID)
	}

	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(profile.BillingCustomerID),
		ReturnURL: stripe.String(s.cfg.PortalReturnURL),
	}
	session, err := s.stripeClient.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", ErrStripeClient, err)
	}
	return session.URL, nil
}

// HandleWebhookEvent verifies and applies a Stripe event. Unrecognized event
// types are ignored; events carrying an unknown price id are logged as errors
// and dropped without failing the delivery (Stripe would otherwise retry an
// event this side can never process).
func (s *billingService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	// The account's webhook API version rarely matches the SDK's pinned one,
	// so only the signature is enforced here.
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event.Data.Raw)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event.Data.Raw)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event.Data.Raw)
	default:
		s.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("%w: decode checkout session: %v", ErrWebhookProcessing, err)
	}

	userID := session.Metadata["userId"]
	plan := models.SubscriptionPlan(session.Metadata["plan"])
	if userID == "" || !models.ValidPlan(plan) {
		s.logger.Error("checkout.session.completed with unusable metadata, dropping event",
			zap.String("sessionId", session.ID),
			zap.String("userId", userID),
			zap.String("plan", string(plan)))
		return nil
	}

	if session.Customer != nil {
		if err := s.userRepo.SetBillingCustomerID(ctx, userID, session.Customer.ID); err != nil {
			return fmt.Errorf("%w: persist customer id: %v", ErrWebhookProcessing, err)
		}
	}
	var subscriptionID string
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if err := s.userRepo.SetSubscription(ctx, userID, plan, subscriptionID, "active"); err != nil {
		return fmt.Errorf("%w: apply plan: %v", ErrWebhookProcessing, err)
	}

	s.recordPlanChange(ctx, userID, string(plan), "checkout.session.completed")
	return nil
}

func (s *billingService) handleSubscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("%w: decode subscription: %v", ErrWebhookProcessing, err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		s.logger.Error("subscription event without price data, dropping event",
			zap.String("subscriptionId", sub.ID))
		return nil
	}

	priceID := sub.Items.Data[0].Price.ID
	planName, ok := s.cfg.PriceIDToPlan[priceID]
	if !ok {
		s.logger.Error("subscription event with unrecognized price id, dropping event",
			zap.String("subscriptionId", sub.ID),
			zap.String("priceId", priceID))
		return nil
	}

	profile, err := s.findProfileForSubscription(ctx, &sub)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}

	plan := models.SubscriptionPlan(planName)
	if err := s.userRepo.SetSubscription(ctx, profile.ID, plan, sub.ID, string(sub.Status)); err != nil {
		return fmt.Errorf("%w: apply plan: %v", ErrWebhookProcessing, err)
	}
	s.recordPlanChange(ctx, profile.ID, planName, "customer.subscription.updated")
	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("%w: decode subscription: %v", ErrWebhookProcessing, err)
	}

	profile, err := s.findProfileForSubscription(ctx, &sub)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}

	if err := s.userRepo.SetSubscription(ctx, profile.ID, models.PlanFree, "", "canceled"); err != nil {
		return fmt.Errorf("%w: downgrade to free: %v", ErrWebhookProcessing, err)
	}
	s.recordPlanChange(ctx, profile.ID, string(models.PlanFree), "customer.subscription.deleted")
	return nil
}

// findProfileForSubscription resolves the affected user via the customer
// reference, falling back to the subscription id. Returns nil without error
// when no profile matches, which also drops the event.
func (s *billingService) findProfileForSubscription(ctx context.Context, sub *stripe.Subscription) (*models.UserProfile, error) {
	if sub.Customer != nil && sub.Customer.ID != "" {
		profile, err := s.userRepo.GetByBillingCustomerID(ctx, sub.Customer.ID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: lookup by customer: %v", ErrWebhookProcessing, err)
		}
	}
	if sub.ID != "" {
		profile, err := s.userRepo.GetBySubscriptionID(ctx, sub.ID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: lookup by subscription: %v", ErrWebhookProcessing, err)
		}
	}
	s.logger.Error("subscription event for unknown user, dropping event",
		zap.String("subscriptionId", sub.ID))
	return nil, nil
}

func (s *billingService) recordPlanChange(ctx context.Context, userID, plan, source string) {
	if s.auditService == nil {
		return
	}
	logEntry := models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionPlanChange,
		TargetType: "profile",
		TargetID:   userID,
		Details:    map[string]interface{}{"plan": plan, "source": source},
	}
	if err := s.auditService.CreateAuditLog(ctx, logEntry); err != nil {
		s.logger.Warn("failed to write plan-change audit log",
			zap.String("userId", userID), zap.Error(err))
	}
}
