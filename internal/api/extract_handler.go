package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardsync-backend-go/internal/core"
	"cardsync-backend-go/internal/middleware"
	"cardsync-backend-go/internal/models"
)

// ExtractHandler handles the contact-extraction endpoint.
type ExtractHandler struct {
	extractionService core.ExtractionService
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(es core.ExtractionService) *ExtractHandler {
	return &ExtractHandler{extractionService: es}
}

// Extract handles POST /extract. The response carries only the fields that
// were detected; unset fields are omitted.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	info, err := h.extractionService.Extract(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyExtractInput), errors.Is(err, core.ErrInvalidAttachment):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, core.ErrExtractionFailed):
			middleware.IncExtractionRequest("failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   core.ErrExtractionFailed.Error(),
				Details: "The extraction backend is unavailable, please try again.",
			})
		default:
			log.Printf("Internal Server Error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		}
		return
	}

	middleware.IncExtractionRequest("ok")
	c.JSON(http.StatusOK, info)
}
