package core

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardsync-backend-go/internal/models"
)

type fakeFieldExtractor struct {
	info models.ContactInfo
	err  error
}

func (f *fakeFieldExtractor) ExtractFromImage(ctx context.Context, imageData []byte, mimeType string) (models.ContactInfo, error) {
	return f.info, f.err
}

func (f *fakeFieldExtractor) Close() error { return nil }

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imageData []byte) (string, error) {
	return f.text, f.err
}

func encodedImage() string {
	return base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
}

func TestExtract_TextOnlyUsesHeuristic(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())

	info, err := svc.Extract(context.Background(), models.ExtractRequest{
		Text: "Jane Doe\nSoftware Engineer\njane@acme.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Equal(t, "Software Engineer", info.JobTitle)
	assert.Equal(t, "jane@acme.com", info.EmailAddress)
}

func TestExtract_EmptyRequest(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())
	_, err := svc.Extract(context.Background(), models.ExtractRequest{})
	assert.ErrorIs(t, err, ErrEmptyExtractInput)
}

func TestExtract_ImageWinsOverText(t *testing.T) {
	ai := &fakeFieldExtractor{info: models.ContactInfo{FullName: "From The Image"}}
	svc := NewExtractionService(ai, nil, zap.NewNop())

	info, err := svc.Extract(context.Background(), models.ExtractRequest{
		ImageData: encodedImage(),
		Text:      "From The Text",
	})
	require.NoError(t, err)
	assert.Equal(t, "From The Image", info.FullName)
}

func TestExtract_AIFailureFallsBackToOCR(t *testing.T) {
	ai := &fakeFieldExtractor{err: errors.New("quota exhausted upstream")}
	recognizer := &fakeRecognizer{text: "Jane Doe\nSoftware Engineer"}
	svc := NewExtractionService(ai, recognizer, zap.NewNop())

	info, err := svc.Extract(context.Background(), models.ExtractRequest{ImageData: encodedImage()})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Equal(t, "Software Engineer", info.JobTitle)
}

func TestExtract_NoBackendAvailable(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())
	_, err := svc.Extract(context.Background(), models.ExtractRequest{ImageData: encodedImage()})
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtract_BothBackendsFailing(t *testing.T) {
	ai := &fakeFieldExtractor{err: errors.New("upstream down")}
	recognizer := &fakeRecognizer{err: errors.New("engine missing")}
	svc := NewExtractionService(ai, recognizer, zap.NewNop())

	_, err := svc.Extract(context.Background(), models.ExtractRequest{ImageData: encodedImage()})
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtract_DataURIImage(t *testing.T) {
	ai := &fakeFieldExtractor{info: models.ContactInfo{FullName: "Jane Doe"}}
	svc := NewExtractionService(ai, nil, zap.NewNop())

	info, err := svc.Extract(context.Background(), models.ExtractRequest{
		ImageData: "data:image/png;base64," + encodedImage(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.FullName)
}

func TestExtract_BadImagePayload(t *testing.T) {
	svc := NewExtractionService(&fakeFieldExtractor{}, nil, zap.NewNop())
	_, err := svc.Extract(context.Background(), models.ExtractRequest{ImageData: "%%% not base64 %%%"})
	assert.ErrorIs(t, err, ErrInvalidAttachment)
}
