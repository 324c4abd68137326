package core

import (
	"context"
	"errors"
	"fmt"

	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(ar db.AuditRepository) AuditService {
	return &auditService{auditRepo: ar}
}

// CreateAuditLog persists one activity-trail entry. Callers treat failures as
// non-fatal; this method only validates and forwards.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return errors.New("auditService: component not initialized")
	}
	if logEntry.UserID == "" || logEntry.Action == "" {
		return errors.New("audit log entry requires userID and action")
	}
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to persist audit log: %w", err)
	}
	return nil
}
