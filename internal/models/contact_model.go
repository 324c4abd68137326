package models

import "time"

// ContactInfo is the editable, card-derived portion of a Contact. Every field
// is optional; an empty string means the field was never detected or entered,
// and is omitted from both JSON and Firestore output.
type ContactInfo struct {
	FullName        string `json:"fullName,omitempty" firestore:"fullName,omitempty"`
	JobTitle        string `json:"jobTitle,omitempty" firestore:"jobTitle,omitempty"`
	CompanyName     string `json:"companyName,omitempty" firestore:"companyName,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty" firestore:"phoneNumber,omitempty"`
	EmailAddress    string `json:"emailAddress,omitempty" firestore:"emailAddress,omitempty"`
	PhysicalAddress string `json:"physicalAddress,omitempty" firestore:"physicalAddress,omitempty"`
}

// Empty reports whether no field was detected at all.
func (ci ContactInfo) Empty() bool {
	return ci == ContactInfo{}
}

// Contact represents one saved business-card contact.
type Contact struct {
	ID     string `json:"id" firestore:"-"` // Document ID, auto-generated
	UserID string `json:"userId" firestore:"userId"` // Firebase Auth UID of the owner

	ContactInfo

	// Attachment references. Populated by a follow-up update after the
	// create transaction commits; may legitimately be empty if the upload
	// failed (accepted partial state).
	ImageURL     string `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	VoiceNoteURL string `json:"voiceNoteUrl,omitempty" firestore:"voiceNoteUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
