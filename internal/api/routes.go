package api

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cardsync-backend-go/internal/core"
	"cardsync-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS, Metrics) are applied
// to the router in main.go before this is called.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	firebaseAuthClient *auth.Client,
	userService core.UserService,
	contactService core.ContactService,
	extractionService core.ExtractionService,
	billingService core.BillingService,
	exportService core.ExportService,
) {
	if firebaseAuthClient == nil {
		// The server must not come up with protected routes left open.
		logger.Fatal("Firebase Auth client is not initialized, routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, logger)

	userHandler := NewUserHandler(userService)
	contactHandler := NewContactHandler(contactService, exportService)
	extractHandler := NewExtractHandler(extractionService)
	billingHandler := NewBillingHandler(billingService)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			// Called after client-side Firebase login to ensure the backend
			// profile exists.
			usersGroup.POST("/initialize", authMW.VerifyToken(), userHandler.InitializeUserProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentUserProfile)
		}

		apiV1.POST("/extract", authMW.VerifyToken(), extractHandler.Extract)

		contactsGroup := apiV1.Group("/contacts", authMW.VerifyToken())
		{
			contactsGroup.POST("", contactHandler.CreateContact)
			contactsGroup.GET("", contactHandler.ListContacts)
			// Registered before the :contactId routes so "export" is not
			// captured as an id.
			contactsGroup.GET("/export", contactHandler.ExportContacts)
			contactsGroup.GET("/:contactId", contactHandler.GetContact)
			contactsGroup.PUT("/:contactId", contactHandler.UpdateContact)
			contactsGroup.DELETE("/:contactId", contactHandler.DeleteContact)
			contactsGroup.PUT("/:contactId/voice-note", contactHandler.AttachVoiceNote)
		}

		billingGroup := apiV1.Group("/billing", authMW.VerifyToken())
		{
			billingGroup.POST("/create-checkout-session", billingHandler.CreateCheckoutSession)
			billingGroup.POST("/confirm", billingHandler.ConfirmCheckout)
			billingGroup.POST("/create-portal-session", billingHandler.CreatePortalSession)
		}

		// Webhook deliveries authenticate via signature, not a bearer token,
		// so this route stays outside the authed billing group.
		apiV1.POST("/billing/webhooks/stripe", billingHandler.HandleStripeWebhook)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
