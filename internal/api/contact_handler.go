package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/contact"
	"github.com/gsarma/courier/internal/logger"
)

// CreateContactSubmission accepts the {data:{...}} envelope the site's
// contact form posts.
func (h *Handler) CreateContactSubmission(c *gin.Context) {
	var body struct {
		Data contact.Input `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := body.Data
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	sub, err := h.contacts.Submit(c.Request.Context(), in)
	switch {
	case errors.Is(err, contact.ErrMissingFields),
		errors.Is(err, contact.ErrInvalidEmail),
		errors.Is(err, contact.ErrMessageLength):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.From(c.Request.Context()).Error("contact submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred while processing your submission"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sub})
}
