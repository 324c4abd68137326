package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseStorageBucket            string `mapstructure:"FIREBASE_STORAGE_BUCKET"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	StripeSecretKey       string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret   string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceIDPro      string `mapstructure:"STRIPE_PRICE_ID_PRO"`
	StripePriceIDBusiness string `mapstructure:"STRIPE_PRICE_ID_BUSINESS"`

	// GeminiAPIKey enables the AI extraction path; when empty the server
	// falls back to local OCR plus the heuristic parser.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`
	OCREnabled   bool   `mapstructure:"OCR_ENABLED"`

	ClientURL  string `mapstructure:"CLIENT_URL"`   // Browser origin allowed by CORS
	AppBaseURL string `mapstructure:"APP_BASE_URL"` // Base for checkout success/cancel redirects
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("OCR_ENABLED", false)

	// Bind environment variables
	for _, key := range []string{
		"PORT",
		"GIN_MODE",
		"FIREBASE_PROJECT_ID",
		"FIREBASE_STORAGE_BUCKET",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"STRIPE_SECRET_KEY",
		"STRIPE_WEBHOOK_SECRET",
		"STRIPE_PRICE_ID_PRO",
		"STRIPE_PRICE_ID_BUSINESS",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"OCR_ENABLED",
		"CLIENT_URL",
		"APP_BASE_URL",
	} {
		viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.FirebaseStorageBucket == "" {
		return nil, errors.New("FIREBASE_STORAGE_BUCKET is required")
	}
	if cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.StripePriceIDPro == "" || cfg.StripePriceIDBusiness == "" {
		return nil, errors.New("STRIPE_PRICE_ID_PRO and STRIPE_PRICE_ID_BUSINESS are required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = cfg.ClientURL
	}

	return &cfg, nil
}

// PriceIDToPlan maps the configured Stripe price ids to plan names. Used by
// the billing webhook to resolve subscription events back to a tier.
func (c *Config) PriceIDToPlan() map[string]string {
	return map[string]string{
		c.StripePriceIDPro:      "pro",
		c.StripePriceIDBusiness: "business",
	}
}

// PlanToPriceID is the inverse mapping, used when creating checkout sessions.
func (c *Config) PlanToPriceID() map[string]string {
	return map[string]string{
		"pro":      c.StripePriceIDPro,
		"business": c.StripePriceIDBusiness,
	}
}
