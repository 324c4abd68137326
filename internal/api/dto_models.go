package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AttachVoiceNoteRequest carries a replacement voice memo as raw base64.
type AttachVoiceNoteRequest struct {
	VoiceNoteData string `json:"voiceNoteData" binding:"required"`
}

// CheckoutSessionResponse returns the hosted page URL the client should
// redirect to.
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}
