package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardsync-backend-go/internal/core"
	"cardsync-backend-go/internal/middleware"
	"cardsync-backend-go/internal/models"
)

// BillingHandler handles API endpoints related to subscriptions and payments.
type BillingHandler struct {
	billingService core.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP status
// codes and ErrorResponse.
func mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrPlanNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrPlanNotFound.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrUserStripeNotLinked):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrUserStripeNotLinked.Error()}
	case errors.Is(err, core.ErrCheckoutNotPaid):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrCheckoutNotPaid.Error()}
	case errors.Is(err, core.ErrCheckoutWrongUser):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrCheckoutWrongUser.Error()}
	case errors.Is(err, core.ErrStripeClient):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{
			Error:   "Payment provider request failed",
			Details: "Please try again shortly.",
		}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /billing/create-checkout-session
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	email := c.GetString("userEmail")

	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), userID.(string), email, req.Plan)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: url})
}

// ConfirmCheckout handles POST /billing/confirm
func (h *BillingHandler) ConfirmCheckout(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.ConfirmCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	profile, err := h.billingService.ConfirmCheckout(c.Request.Context(), userID.(string), req.SessionID)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreatePortalSession handles POST /billing/create-portal-session
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	url, err := h.billingService.CreatePortalSession(c.Request.Context(), userID.(string))
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: url})
}

// HandleStripeWebhook handles POST /webhooks/stripe. This endpoint is
// unauthenticated; the event signature is the authentication.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.billingService.HandleWebhookEvent(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, core.ErrWebhookSignature) {
			middleware.IncWebhookEvent("bad_signature")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrWebhookSignature.Error()})
			return
		}
		// A processing failure returns 500 so the provider redelivers.
		middleware.IncWebhookEvent("failed")
		log.Printf("Webhook processing error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: core.ErrWebhookProcessing.Error()})
		return
	}

	middleware.IncWebhookEvent("ok")
	c.JSON(http.StatusOK, gin.H{"received": true})
}
