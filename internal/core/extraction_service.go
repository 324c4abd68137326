package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardsync-backend-go/internal/ai"
	"cardsync-backend-go/internal/extract"
	"cardsync-backend-go/internal/models"
	"cardsync-backend-go/internal/ocr"
)

// Custom errors for the ExtractionService
var (
	ErrExtractionFailed  = errors.New("could not extract contact fields from the supplied input")
	ErrEmptyExtractInput = errors.New("extraction request must carry an image or text")
)

// extractionService implements the ExtractionService interface. The AI
// backend is preferred; when it is unavailable or fails, the image goes
// through local OCR and the heuristic line parser instead.
type extractionService struct {
	fieldExtractor ai.FieldExtractor  // may be nil when no API key is configured
	recognizer     ocr.TextRecognizer // may be nil when OCR is disabled
	logger         *zap.Logger
}

// NewExtractionService creates a new ExtractionService instance. Either
// backend may be nil; text-only extraction always works.
func NewExtractionService(fe ai.FieldExtractor, tr ocr.TextRecognizer, logger *zap.Logger) ExtractionService {
	return &extractionService{
		fieldExtractor: fe,
		recognizer:     tr,
		logger:         logger,
	}
}

// Extract maps the request to a partial contact record. An image payload
// takes precedence over text when both are present.
func (s *extractionService) Extract(ctx context.Context, req models.ExtractRequest) (models.ContactInfo, error) {
	if req.ImageData != "" {
		return s.extractFromImage(ctx, req.ImageData)
	}
	if req.Text != "" {
		return extract.FromText(req.Text), nil
	}
	return models.ContactInfo{}, ErrEmptyExtractInput
}

func (s *extractionService) extractFromImage(ctx context.Context, imageData string) (models.ContactInfo, error) {
	payload := imageData
	mimeType := "image/jpeg"
	if strings.HasPrefix(payload, "data:") {
		meta, encoded, found := strings.Cut(payload[len("data:"):], ",")
		if !found {
			return models.ContactInfo{}, fmt.Errorf("%w: malformed data URI", ErrInvalidAttachment)
		}
		if ct, _, _ := strings.Cut(meta, ";"); ct != "" {
			mimeType = ct
		}
		payload = encoded
	}
	imageBytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.ContactInfo{}, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	if s.fieldExtractor != nil {
		info, err := s.fieldExtractor.ExtractFromImage(ctx, imageBytes, mimeType)
		if err == nil {
			return info, nil
		}
		s.logger.Warn("ai extraction failed, falling back to local ocr", zap.Error(err))
	}

	if s.recognizer != nil {
		text, err := s.recognizer.Recognize(ctx, imageBytes)
		if err != nil {
			s.logger.Error("local ocr failed", zap.Error(err))
			return models.ContactInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		return extract.FromText(text), nil
	}

	return models.ContactInfo{}, fmt.Errorf("%w: no extraction backend available", ErrExtractionFailed)
}
