package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/models"
	"cardsync-backend-go/internal/storage"
)

// Custom errors for the ContactService
var (
	ErrContactNotFound   = errors.New("contact not found")
	ErrForbiddenAccess   = errors.New("user does not have permission for this action on the contact")
	ErrQuotaExceeded     = errors.New("contact limit reached for the current plan")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidAttachment = errors.New("attachment payload is not valid base64")
)

// contactService implements the ContactService interface.
type contactService struct {
	contactRepo  db.ContactRepository
	blobStore    storage.BlobStore
	auditService AuditService
	logger       *zap.Logger
}

// NewContactService creates a new ContactService instance.
func NewContactService(cr db.ContactRepository, bs storage.BlobStore, as AuditService, logger *zap.Logger) ContactService {
	return &contactService{
		contactRepo:  cr,
		blobStore:    bs,
		auditService: as,
		logger:       logger,
	}
}

func imageKey(userID, contactID string) string {
	return fmt.Sprintf("contact-images/%s/%s", userID, contactID)
}

func voiceNoteKey(userID, contactID string) string {
	return fmt.Sprintf("voice-notes/%s/%s.wav", userID, contactID)
}

// decodeAttachment accepts either raw base64 or a data URI and returns the
// binary payload plus the content type to store it under.
func decodeAttachment(payload, defaultContentType string) ([]byte, string, error) {
	contentType := defaultContentType
	if strings.HasPrefix(payload, "data:") {
		meta, encoded, found := strings.Cut(payload[len("data:"):], ",")
		if !found {
			return nil, "", fmt.Errorf("%w: malformed data URI", ErrInvalidAttachment)
		}
		if ct, _, _ := strings.Cut(meta, ";"); ct != "" {
			contentType = ct
		}
		payload = encoded
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}
	return data, contentType, nil
}

// CreateContact persists a new contact for a user, enforcing the plan quota.
// Attachments are decoded up front so a bad payload fails before any
// mutation, then uploaded only after the metadata transaction commits.
func (s *contactService) CreateContact(ctx context.Context, userID string, req models.SaveContactRequest) (*models.Contact, error) {
	if s.contactRepo == nil {
		return nil, errors.New("contactService: component not initialized")
	}

	var imageBytes, voiceBytes []byte
	var imageContentType string
	var err error
	if req.ImageData != "" {
		imageBytes, imageContentType, err = decodeAttachment(req.ImageData, "image/jpeg")
		if err != nil {
			return nil, err
		}
	}
	if req.VoiceNoteData != "" {
		voiceBytes, _, err = decodeAttachment(req.VoiceNoteData, "audio/wav")
		if err != nil {
			return nil, err
		}
	}

	newContact := &models.Contact{ContactInfo: req.ContactInfo}
	created, err := s.contactRepo.CreateWithQuota(ctx, userID, newContact)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrQuotaExceeded):
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: profile for '%s' missing", ErrUserNotFound, userID)
		default:
			return nil, fmt.Errorf("failed to create contact for user '%s': %w", userID, err)
		}
	}

	// Attachment uploads happen outside the transaction. A failure here
	// leaves the contact row with empty attachment fields and still counts
	// as a successful save.
	var imageURL, voiceURL string
	if len(imageBytes) > 0 {
		imageURL, err = s.blobStore.Upload(ctx, imageKey(userID, created.ID), imageBytes, imageContentType)
		if err != nil {
			s.logger.Error("contact image upload failed, keeping contact without image",
				zap.String("contactId", created.ID), zap.Error(err))
			imageURL = ""
		}
	}
	if len(voiceBytes) > 0 {
		voiceURL, err = s.blobStore.Upload(ctx, voiceNoteKey(userID, created.ID), voiceBytes, "audio/wav")
		if err != nil {
			s.logger.Error("voice note upload failed, keeping contact without voice note",
				zap.String("contactId", created.ID), zap.Error(err))
			voiceURL = ""
		}
	}
	if imageURL != "" || voiceURL != "" {
		if err := s.contactRepo.SetAttachmentURLs(ctx, created.ID, imageURL, voiceURL); err != nil {
			s.logger.Error("failed to record attachment urls",
				zap.String("contactId", created.ID), zap.Error(err))
		} else {
			if imageURL != "" {
				created.ImageURL = imageURL
			}
			if voiceURL != "" {
				created.VoiceNoteURL = voiceURL
			}
		}
	}

	s.recordAudit(ctx, userID, models.AuditActionContactCreate, created.ID, map[string]interface{}{
		"fullName": created.FullName,
	})

	return created, nil
}

// GetContactByID retrieves a single contact, enforcing ownership.
func (s *contactService) GetContactByID(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: id '%s'", ErrContactNotFound, contactID)
		}
		return nil, fmt.Errorf("failed to get contact '%s': %w", contactID, err)
	}
	if contact.UserID != userID {
		return nil, fmt.Errorf("%w: contact '%s'", ErrForbiddenAccess, contactID)
	}
	return contact, nil
}

// ListContacts returns the user's contacts, newest first.
func (s *contactService) ListContacts(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Contact, error) {
	contacts, err := s.contactRepo.GetByOwnerID(ctx, userID, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts for user '%s': %w", userID, err)
	}
	return contacts, nil
}

// UpdateContact merges the provided field changes onto an existing contact.
// Quota is not involved; the contact count never changes here.
func (s *contactService) UpdateContact(ctx context.Context, userID, contactID string, req models.UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.GetContactByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(contact)

	if req.VoiceNoteData != nil && *req.VoiceNoteData != "" {
		voiceBytes, _, err := decodeAttachment(*req.VoiceNoteData, "audio/wav")
		if err != nil {
			return nil, err
		}
		voiceURL, err := s.blobStore.Upload(ctx, voiceNoteKey(userID, contactID), voiceBytes, "audio/wav")
		if err != nil {
			s.logger.Error("voice note upload failed during update",
				zap.String("contactId", contactID), zap.Error(err))
		} else {
			contact.VoiceNoteURL = voiceURL
		}
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact '%s': %w", contactID, err)
	}
	return contact, nil
}

// AttachVoiceNote uploads a replacement voice memo and records its URL.
func (s *contactService) AttachVoiceNote(ctx context.Context, userID, contactID, voiceNoteData string) (*models.Contact, error) {
	contact, err := s.GetContactByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	voiceBytes, _, err := decodeAttachment(voiceNoteData, "audio/wav")
	if err != nil {
		return nil, err
	}
	voiceURL, err := s.blobStore.Upload(ctx, voiceNoteKey(userID, contactID), voiceBytes, "audio/wav")
	if err != nil {
		return nil, fmt.Errorf("voice note upload for contact '%s' failed: %w", contactID, err)
	}
	if err := s.contactRepo.SetAttachmentURLs(ctx, contactID, "", voiceURL); err != nil {
		return nil, fmt.Errorf("failed to record voice note url on contact '%s': %w", contactID, err)
	}
	contact.VoiceNoteURL = voiceURL
	return contact, nil
}

// DeleteContact removes the contact and decrements the owner's counter, then
// releases stored attachments best-effort. Blob deletion failures are logged
// and swallowed; the metadata deletion is the success criterion.
func (s *contactService) DeleteContact(ctx context.Context, userID, contactID string) error {
	deleted, err := s.contactRepo.DeleteWithCount(ctx, userID, contactID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return fmt.Errorf("%w: id '%s'", ErrContactNotFound, contactID)
		case errors.Is(err, db.ErrForbidden):
			return fmt.Errorf("%w: contact '%s'", ErrForbiddenAccess, contactID)
		default:
			return fmt.Errorf("failed to delete contact '%s': %w", contactID, err)
		}
	}

	if deleted.ImageURL != "" {
		if err := s.blobStore.Delete(ctx, imageKey(userID, contactID)); err != nil {
			s.logger.Warn("failed to delete contact image blob",
				zap.String("contactId", contactID), zap.Error(err))
		}
	}
	if deleted.VoiceNoteURL != "" {
		if err := s.blobStore.Delete(ctx, voiceNoteKey(userID, contactID)); err != nil {
			s.logger.Warn("failed to delete voice note blob",
				zap.String("contactId", contactID), zap.Error(err))
		}
	}

	s.recordAudit(ctx, userID, models.AuditActionContactDelete, contactID, nil)
	return nil
}

func (s *contactService) recordAudit(ctx context.Context, userID, action, targetID string, details map[string]interface{}) {
	if s.auditService == nil {
		return
	}
	logEntry := models.AuditLog{
		UserID:     userID,
		Action:     action,
		TargetType: "contact",
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.auditService.CreateAuditLog(ctx, logEntry); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action), zap.Error(err))
	}
}
