package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/subscription"
)

type signupRequest struct {
	Email       string                    `json:"email"`
	FirstName   string                    `json:"firstName"`
	LastName    string                    `json:"lastName"`
	Source      string                    `json:"source"`
	SourceURL   string                    `json:"sourceUrl"`
	Preferences *subscription.Preferences `json:"preferences"`
	Location    *subscription.Location    `json:"location"`
}

// CreateSignup registers a pending subscription. The verification token is
// only ever sent by email.
func (h *Handler) CreateSignup(c *gin.Context) {
	var body signupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sourceURL := body.SourceURL
	if sourceURL == "" {
		sourceURL = c.Request.Referer()
	}

	signup, _, err := h.signups.Create(c.Request.Context(), subscription.SignupInput{
		Email:       body.Email,
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Source:      body.Source,
		SourceURL:   sourceURL,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Preferences: body.Preferences,
		Location:    body.Location,
	})
	if code, ok := signupErrorCode(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": code})
		return
	}
	if err != nil {
		logger.From(c.Request.Context()).Error("create newsletter signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create newsletter signup"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Newsletter signup successful! Please check your email to verify your subscription.",
		"data": gin.H{
			"id":       signup.ID,
			"email":    signup.Email,
			"status":   signup.Status,
			"verified": signup.Verified,
		},
	})
}

// VerifySignup redeems a token from the verification email. Every token
// failure gets the same message; the reason field is for clients that
// offer a resend on expiry.
func (h *Handler) VerifySignup(c *gin.Context) {
	signup, err := h.signups.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		var tokErr *subscription.TokenError
		if errors.As(err, &tokErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  subscription.ErrInvalidOrExpiredToken.Error(),
				"code":   "invalid_or_expired_token",
				"reason": tokErr.Reason,
			})
			return
		}
		logger.From(c.Request.Context()).Error("verify newsletter signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify newsletter subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully! You are now subscribed to our newsletter.",
		"data":    signup,
	})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signup, err := h.signups.Unsubscribe(c.Request.Context(), body.Email)
	switch {
	case errors.Is(err, subscription.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, subscription.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found in newsletter subscriptions"})
		return
	case err != nil:
		logger.From(c.Request.Context()).Error("unsubscribe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe from newsletter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully unsubscribed from newsletter",
		"data":    signup,
	})
}

func signupErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, subscription.ErrEmailRequired):
		return "email_required", true
	case errors.Is(err, subscription.ErrInvalidEmail):
		return "invalid_email", true
	case errors.Is(err, subscription.ErrDuplicateEmail):
		return "duplicate_email", true
	}
	return "", false
}
