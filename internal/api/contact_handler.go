package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardsync-backend-go/internal/core"
	"cardsync-backend-go/internal/middleware"
	"cardsync-backend-go/internal/models"
)

// ContactHandler handles API endpoints related to contacts.
type ContactHandler struct {
	contactService core.ContactService
	exportService  core.ExportService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(cs core.ContactService, es core.ExportService) *ContactHandler {
	return &ContactHandler{contactService: cs, exportService: es}
}

// mapContactErrorToStatus maps errors from core.ContactService to HTTP status
// codes and ErrorResponse.
func mapContactErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrContactNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrContactNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrQuotaExceeded):
		// 402 so the client can distinguish "pay up" from plain validation
		// failures and surface the upgrade prompt.
		statusCode = http.StatusPaymentRequired
		errResponse = ErrorResponse{
			Error:   core.ErrQuotaExceeded.Error(),
			Details: "Upgrade your plan to save more contacts.",
		}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User profile not found", Details: err.Error()}
	case errors.Is(err, core.ErrInvalidAttachment):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidAttachment.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateContact handles POST /contacts
func (h *ContactHandler) CreateContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.SaveContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	created, err := h.contactService.CreateContact(c.Request.Context(), userID.(string), req)
	if err != nil {
		if errors.Is(err, core.ErrQuotaExceeded) {
			middleware.IncQuotaRejection()
		}
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListContacts handles GET /contacts
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	paginationParams := make(map[string]string)
	if limit := c.Query("limit"); limit != "" {
		paginationParams["limit"] = limit
	}
	if startAfter := c.Query("startAfter"); startAfter != "" {
		paginationParams["startAfter"] = startAfter
	}

	contacts, err := h.contactService.ListContacts(c.Request.Context(), userID.(string), paginationParams)
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// GetContact handles GET /contacts/:contactId
func (h *ContactHandler) GetContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	contact, err := h.contactService.GetContactByID(c.Request.Context(), userID.(string), c.Param("contactId"))
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// UpdateContact handles PUT /contacts/:contactId
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updated, err := h.contactService.UpdateContact(c.Request.Context(), userID.(string), c.Param("contactId"), req)
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AttachVoiceNote handles PUT /contacts/:contactId/voice-note
func (h *ContactHandler) AttachVoiceNote(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req AttachVoiceNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updated, err := h.contactService.AttachVoiceNote(c.Request.Context(), userID.(string), c.Param("contactId"), req.VoiceNoteData)
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteContact handles DELETE /contacts/:contactId
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	if err := h.contactService.DeleteContact(c.Request.Context(), userID.(string), c.Param("contactId")); err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportContacts handles GET /contacts/export?format=csv|xlsx
func (h *ContactHandler) ExportContacts(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	contacts, err := h.contactService.ListContacts(c.Request.Context(), userID.(string), nil)
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		out, err := h.exportService.ExportCSV(contacts)
		if err != nil {
			mapContactErrorToStatus(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="contacts.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
	case "xlsx":
		out, err := h.exportService.ExportXLSX(contacts)
		if err != nil {
			mapContactErrorToStatus(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="contacts.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Unsupported export format",
			Details: fmt.Sprintf("format '%s' is not supported, use 'csv' or 'xlsx'", format),
		})
	}
}
