package models

// SaveContactRequest represents the request body for creating a new contact.
// Attachment payloads ride along as base64 (optionally a data URI for the
// image, matching what the capture UI produces) and are uploaded to blob
// storage after the metadata transaction commits.
type SaveContactRequest struct {
	ContactInfo

	ImageData     string `json:"imageData,omitempty"`     // data URI or raw base64
	VoiceNoteData string `json:"voiceNoteData,omitempty"` // raw base64 audio
}

// UpdateContactRequest represents the request body for updating an existing
// contact. Pointers distinguish "clear this field" from "field not provided".
type UpdateContactRequest struct {
	FullName        *string `json:"fullName,omitempty"`
	JobTitle        *string `json:"jobTitle,omitempty"`
	CompanyName     *string `json:"companyName,omitempty"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	EmailAddress    *string `json:"emailAddress,omitempty"`
	PhysicalAddress *string `json:"physicalAddress,omitempty"`

	VoiceNoteData *string `json:"voiceNoteData,omitempty"` // raw base64 audio, replaces existing note
}

// ApplyTo merges the provided fields onto an existing contact. Fields left
// nil in the request are untouched.
func (r UpdateContactRequest) ApplyTo(c *Contact) {
	if r.FullName != nil {
		c.FullName = *r.FullName
	}
	if r.JobTitle != nil {
		c.JobTitle = *r.JobTitle
	}
	if r.CompanyName != nil {
		c.CompanyName = *r.CompanyName
	}
	if r.PhoneNumber != nil {
		c.PhoneNumber = *r.PhoneNumber
	}
	if r.EmailAddress != nil {
		c.EmailAddress = *r.EmailAddress
	}
	if r.PhysicalAddress != nil {
		c.PhysicalAddress = *r.PhysicalAddress
	}
}

// ExtractRequest represents the request body for the extraction endpoint.
// Exactly one of ImageData or Text should be provided; when both are present
// the image wins.
type ExtractRequest struct {
	ImageData string `json:"imageData,omitempty"` // data URI or raw base64
	Text      string `json:"text,omitempty"`      // pre-recognized card text
}

// CreateCheckoutSessionRequest selects the paid plan to subscribe to.
type CreateCheckoutSessionRequest struct {
	Plan string `json:"plan" binding:"required"` // "pro" or "business"
}

// ConfirmCheckoutRequest carries the checkout session id from the success
// redirect back to the server for verification.
type ConfirmCheckoutRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}
