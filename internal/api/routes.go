package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/metrics"
	"github.com/gsarma/courier/internal/ratelimit"
)

type RouteOptions struct {
	AdminAPIKey string
	Limiter     ratelimit.Limiter
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

func RegisterRoutes(r *gin.Engine, h *Handler, opts RouteOptions) {
	if opts.Logger != nil {
		r.Use(RequestLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	r.GET("/health", h.Health)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	public := r.Group("/")
	if opts.Limiter != nil {
		public.Use(ratelimit.Middleware(opts.Limiter))
	}
	{
		public.POST("/newsletter-signups", h.CreateSignup)
		public.POST("/newsletter-signups/verify/:token", h.VerifySignup)
		public.POST("/newsletter-signups/unsubscribe", h.Unsubscribe)
		public.POST("/contact-submissions", h.CreateContactSubmission)
	}

	admin := r.Group("/newsletter-signups", AdminAuth(opts.AdminAPIKey))
	{
		admin.GET("", h.ListSignups)
		admin.GET("/stats/overview", h.SignupStats)
		admin.GET("/:id", h.GetSignup)
		admin.DELETE("/:id", h.DeleteSignup)
	}
}
