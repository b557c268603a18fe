package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

func String(key, v string) zap.Field                 { return zap.String(key, v) }
func Int(key string, v int) zap.Field                { return zap.Int(key, v) }
func Duration(key string, v time.Duration) zap.Field { return zap.Duration(key, v) }
func Err(err error) zap.Field                        { return zap.Error(err) }

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Email logs an address with its local part masked.
func Email(addr string) zap.Field {
	return zap.String("email", RedactEmail(addr))
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" becomes "jo***@example.com"; local parts of two
// characters or fewer are fully masked.
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "***@***"
	}
	name, domain := addr[:at], addr[at+1:]
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
