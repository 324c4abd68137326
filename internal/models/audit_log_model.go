package models

import "time"

// Audit action identifiers.
const (
	AuditActionContactCreate = "CONTACT_CREATE"
	AuditActionContactDelete = "CONTACT_DELETE"
	AuditActionPlanChange    = "PLAN_CHANGE"
)

// AuditLog represents one activity-trail event (contact lifecycle, plan
// changes). Written best-effort; never blocks the operation it describes.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"` // Who performed the action
	Action     string                 `json:"action" firestore:"action"` // e.g. "CONTACT_CREATE", "CONTACT_DELETE", "PLAN_CHANGE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g. "CONTACT", "PROFILE"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
