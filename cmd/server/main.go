package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"cardsync-backend-go/internal/ai"
	"cardsync-backend-go/internal/api"
	"cardsync-backend-go/internal/config"
	"cardsync-backend-go/internal/core"
	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/middleware"
	"cardsync-backend-go/internal/ocr"
	"cardsync-backend-go/internal/storage"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	// --- 3. Initialize Firebase Admin SDK clients ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	clients, err := db.NewClients(initCtx, appConfig)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth, Storage) initialized")

	// --- 4. Initialize Repositories and Blob Store ---
	userRepo := db.NewFirestoreUserRepository(clients.Firestore)
	contactRepo := db.NewFirestoreContactRepository(clients.Firestore, zapLogger)
	auditRepo := db.NewFirestoreAuditRepository(clients.Firestore)

	blobStore, err := storage.NewFirebaseBlobStore(clients.Storage, appConfig.FirebaseStorageBucket)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob store", zap.Error(err))
	}

	// --- 5. Initialize Extraction Backends ---
	// Both are optional: with neither configured, only text extraction works.
	var fieldExtractor ai.FieldExtractor
	if appConfig.GeminiAPIKey != "" {
		geminiExtractor, err := ai.NewGeminiExtractor(initCtx, appConfig.GeminiAPIKey, appConfig.GeminiModel)
		if err != nil {
			zapLogger.Fatal("Failed to initialize Gemini extractor", zap.Error(err))
		}
		defer geminiExtractor.Close()
		fieldExtractor = geminiExtractor
		zapLogger.Info("Gemini extraction enabled", zap.String("model", appConfig.GeminiModel))
	} else {
		zapLogger.Warn("GEMINI_API_KEY not set, AI extraction disabled")
	}

	var recognizer ocr.TextRecognizer
	if appConfig.OCREnabled {
		recognizer = ocr.NewTesseractRecognizer()
		zapLogger.Info("Local OCR fallback enabled")
	}

	// --- 6. Initialize Core Services ---
	auditService := core.NewAuditService(auditRepo)
	userService := core.NewUserService(userRepo)
	contactService := core.NewContactService(contactRepo, blobStore, auditService, zapLogger)
	extractionService := core.NewExtractionService(fieldExtractor, recognizer, zapLogger)
	exportService := core.NewExportService()

	stripeAPI := stripeclient.New(appConfig.StripeSecretKey, nil)
	billingService := core.NewBillingService(userRepo, stripeAPI, core.BillingConfig{
		WebhookSecret:   appConfig.StripeWebhookSecret,
		PlanToPriceID:   appConfig.PlanToPriceID(),
		PriceIDToPlan:   appConfig.PriceIDToPlan(),
		SuccessURL:      appConfig.AppBaseURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       appConfig.AppBaseURL + "/pricing",
		PortalReturnURL: appConfig.AppBaseURL + "/dashboard",
	}, auditService, zapLogger)
	zapLogger.Info("Core services initialized")

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (order matters) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.CORSMiddleware(appConfig))

	// --- 9. Setup API Routes ---
	api.SetupRoutes(
		router,
		zapLogger,
		clients.Auth,
		userService,
		contactService,
		extractionService,
		billingService,
		exportService,
	)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully")
}
