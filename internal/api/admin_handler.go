package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/logger"
	"github.com/gsarma/courier/internal/subscription"
)

func (h *Handler) ListSignups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(subscription.DefaultPageSize)))

	status := subscription.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	res, err := h.signups.List(c.Request.Context(), subscription.ListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   status,
		Source:   c.Query("source"),
		Search:   c.Query("search"),
	})
	if err != nil {
		logger.From(c.Request.Context()).Error("list newsletter signups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch newsletter signups"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetSignup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signup ID"})
		return
	}

	signup, err := h.signups.Get(c.Request.Context(), id)
	if errors.Is(err, subscription.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "newsletter signup not found"})
		return
	}
	if err != nil {
		logger.From(c.Request.Context()).Error("get newsletter signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch newsletter signup"})
		return
	}
	c.JSON(http.StatusOK, signup)
}

func (h *Handler) DeleteSignup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signup ID"})
		return
	}

	err = h.signups.Delete(c.Request.Context(), id)
	if errors.Is(err, subscription.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "newsletter signup not found"})
		return
	}
	if err != nil {
		logger.From(c.Request.Context()).Error("delete newsletter signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete newsletter signup"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Newsletter signup deleted successfully"})
}

func (h *Handler) SignupStats(c *gin.Context) {
	stats, err := h.signups.Stats(c.Request.Context())
	if err != nil {
		logger.From(c.Request.Context()).Error("newsletter stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch newsletter statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
