// mailsink is a local stand-in for the external mail service. It accepts
// the four send endpoints, logs each decoded request and answers with a
// success outcome, so the server can run against it with the default
// development EMAIL_SERVICE_URL.
//
// Usage:
//
//	go run ./cmd/mailsink --addr :3030 --api-key dev-api-key
package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/courier/internal/logger"
)

func main() {
	addr := flag.String("addr", ":3030", "listen address")
	apiKey := flag.String("api-key", "dev-api-key", "expected X-API-Key; empty accepts any")
	flag.Parse()

	logger.Init(logger.Config{Env: "development", Level: "debug", ServiceName: "mailsink"})
	defer logger.Sync()

	r := gin.New()
	r.Use(gin.Recovery())
	newSink(*apiKey, logger.Named("mailsink")).register(r)

	logger.L().Sugar().Infof("mailsink listening on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatal(err)
	}
}
