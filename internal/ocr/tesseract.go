package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TextRecognizer extracts raw text from an image. Implemented by the
// Tesseract engine below; tests use fakes.
type TextRecognizer interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// TesseractRecognizer runs local OCR through the Tesseract engine. A fresh
// client is created per call because gosseract clients are not safe for
// concurrent use.
type TesseractRecognizer struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractRecognizer creates a recognizer with the default client
// factory. Languages defaults to English when empty.
func NewTesseractRecognizer(languages ...string) *TesseractRecognizer {
	return &TesseractRecognizer{
		clientFactory: func() *gosseract.Client {
			c := gosseract.NewClient()
			if len(languages) > 0 {
				c.SetLanguage(languages...)
			}
			return c
		},
	}
}

// Recognize returns the text Tesseract reads from the image. The context is
// checked before the call; the engine itself does not support cancellation.
func (r *TesseractRecognizer) Recognize(ctx context.Context, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", errors.New("image data cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := r.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}
