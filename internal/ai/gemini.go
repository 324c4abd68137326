package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"cardsync-backend-go/internal/models"
)

// FieldExtractor is the interface core services use to call the hosted
// extraction backend. Implemented by GeminiExtractor; tests use fakes.
type FieldExtractor interface {
	ExtractFromImage(ctx context.Context, imageData []byte, mimeType string) (models.ContactInfo, error)
	Close() error
}

const extractionPrompt = `You are an expert at reading business cards.
Extract the contact details from the attached business card image.
Respond with a single JSON object using exactly these keys, omitting any key you cannot determine:
"fullName", "jobTitle", "companyName", "phoneNumber", "emailAddress", "physicalAddress".
All values must be strings. Do not invent values.`

// GeminiExtractor calls the Gemini API to turn a card image into structured
// contact fields.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates a Gemini-backed FieldExtractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// ExtractFromImage sends the image with the extraction prompt and decodes the
// JSON object the model returns. mimeType is e.g. "image/jpeg".
func (e *GeminiExtractor) ExtractFromImage(ctx context.Context, imageData []byte, mimeType string) (models.ContactInfo, error) {
	var info models.ContactInfo
	if len(imageData) == 0 {
		return info, errors.New("image data cannot be empty")
	}

	model := e.client.GenerativeModel(e.model)
	model.ResponseMIMEType = "application/json"

	// ImageData wants the bare format name, not a full MIME type.
	format := strings.TrimPrefix(mimeType, "image/")
	switch format {
	case "jpeg", "png", "webp", "heic", "heif":
	default:
		format = "jpeg"
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(extractionPrompt),
		genai.ImageData(format, imageData),
	)
	if err != nil {
		return info, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return info, errors.New("gemini returned no candidates")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}

	payload := strings.TrimSpace(raw.String())
	// Some models still wrap JSON in a markdown fence despite the response
	// MIME type.
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &info); err != nil {
		return models.ContactInfo{}, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	return info, nil
}

// Close releases the underlying API connection.
func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}
