package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"

	"cardsync-backend-go/internal/config"
)

// Clients bundles the Firebase-backed client handles the application needs.
// They are constructed once at startup and injected everywhere; no package
// holds them as globals.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	Storage   *fbstorage.Client
}

// NewClients initializes the Firebase Admin SDK and returns the Firestore,
// Auth and Storage clients. Credentials come from a service-account file
// path, a base64-encoded service-account JSON blob, or Application Default
// Credentials, in that order of preference.
func NewClients(ctx context.Context, appConfig *config.Config) (*Clients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("NewClients: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	if appConfig.GoogleApplicationCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	} else if appConfig.FirebaseServiceAccountJSONBase64 != "" {
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decodedJSON))
	}
	// With no explicit option the SDK falls back to ADC, which is the normal
	// setup on GCE/GKE/Cloud Run.

	firebaseAppConfig := &firebase.Config{
		ProjectID:     appConfig.FirebaseProjectID,
		StorageBucket: appConfig.FirebaseStorageBucket,
	}

	app, err := firebase.NewApp(ctx, firebaseAppConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close() // Best effort close
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	storageClient, err := app.Storage(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Storage: %w", err)
	}

	return &Clients{
		Firestore: fsClient,
		Auth:      authClient,
		Storage:   storageClient,
	}, nil
}

// Close releases the underlying connections. Safe to call once at shutdown.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
