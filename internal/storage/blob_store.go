package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
)

// BlobStore abstracts attachment blob persistence so core services can be
// tested without a real bucket.
type BlobStore interface {
	// Upload writes the blob under key and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the blob under key. Deleting a missing blob is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// firebaseBlobStore stores blobs in the project's default Cloud Storage
// bucket via the Firebase Admin SDK.
type firebaseBlobStore struct {
	client     *fbstorage.Client
	bucketName string
}

// NewFirebaseBlobStore creates a BlobStore backed by the default bucket.
// bucketName must match the bucket configured on the Firebase app; it is used
// to build public URLs.
func NewFirebaseBlobStore(client *fbstorage.Client, bucketName string) (BlobStore, error) {
	if client == nil {
		return nil, errors.New("storage client cannot be nil")
	}
	if bucketName == "" {
		return nil, errors.New("bucketName cannot be empty")
	}
	return &firebaseBlobStore{client: client, bucketName: bucketName}, nil
}

func (s *firebaseBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("blob key cannot be empty")
	}
	bucket, err := s.client.DefaultBucket()
	if err != nil {
		return "", fmt.Errorf("failed to resolve default bucket: %w", err)
	}

	writer := bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		writer.Close() // Best effort close
		return "", fmt.Errorf("failed to write blob '%s': %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize blob '%s': %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, key), nil
}

func (s *firebaseBlobStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("blob key cannot be empty")
	}
	bucket, err := s.client.DefaultBucket()
	if err != nil {
		return fmt.Errorf("failed to resolve default bucket: %w", err)
	}

	if err := bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete blob '%s': %w", key, err)
	}
	return nil
}
