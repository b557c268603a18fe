// Package logger provides a process-wide zap logger with request scoping.
//
// Initialize once in main:
//
//	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})
//	defer logger.Sync()
//
// Handlers and services pull the request-scoped logger from the context:
//
//	log := logger.From(ctx)
//	log.Info("signup created", logger.Email(addr))
//
// Without a scoped logger in the context, From falls back to L().
package logger
