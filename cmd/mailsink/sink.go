package main

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/email"
	"github.com/gsarma/courier/internal/logger"
)

var kinds = []email.Kind{
	email.KindContactWelcome,
	email.KindAdminNotification,
	email.KindNewsletterVerification,
	email.KindNewsletterWelcome,
}

type sink struct {
	apiKey string
	log    *zap.Logger

	mu       sync.Mutex
	received []email.Request
}

func newSink(apiKey string, l *zap.Logger) *sink {
	return &sink{apiKey: apiKey, log: l}
}

func (s *sink) register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	for _, kind := range kinds {
		endpoint, _ := email.Endpoint(kind)
		r.POST(endpoint, s.handle(kind))
	}
}

func (s *sink) handle(kind email.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey != "" && c.GetHeader("X-API-Key") != s.apiKey {
			c.JSON(http.StatusUnauthorized, email.Outcome{Error: "invalid API key"})
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, email.Outcome{Error: err.Error()})
			return
		}
		req, err := email.Decode(kind, body)
		if err != nil {
			c.JSON(http.StatusBadRequest, email.Outcome{Error: err.Error()})
			return
		}

		s.mu.Lock()
		s.received = append(s.received, req)
		s.mu.Unlock()

		id := uuid.NewString()
		s.log.Info("email accepted",
			zap.String("kind", string(kind)),
			logger.Email(req.Recipient()),
			zap.String("message_id", id),
			zap.ByteString("payload", body),
		)
		c.JSON(http.StatusOK, email.Outcome{Success: true, MessageID: id})
	}
}
