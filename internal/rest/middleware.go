package rest

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/server/interceptors"
	"sleeptracker/backend/internal/telemetry"
)

const requestIDKey = "request_id"

// RequestIDMiddleware ensures every request has a request ID and carries the caller's X-User-ID
// into the request context the same way the gRPC identity interceptor does.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		ctx := interceptors.WithIdentity(c.Request.Context(), userID, reqID)
		c.Request = c.Request.WithContext(interceptors.WithClientIP(ctx, c.ClientIP()))
		c.Next()
	}
}

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// AccessLogMiddleware logs one line per request and emits an http_request telemetry event.
// emitter may be nil.
func AccessLogMiddleware(log *zap.Logger, emitter telemetry.EventEmitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		log.Info("http request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", elapsed),
		)
		if emitter == nil || route == "/health" {
			return
		}
		ctx := c.Request.Context()
		userID, _ := interceptors.GetUserID(ctx)
		ev := telemetry.NewEvent(telemetry.EventHTTPRequest, "rest_gateway", userID, httpRequestMetadata{
			Method:     c.Request.Method,
			Route:      route,
			StatusCode: c.Writer.Status(),
			DurationMs: elapsed.Milliseconds(),
			ClientIP:   c.ClientIP(),
		})
		ev.RequestID = c.GetString(requestIDKey)
		telemetry.EmitAsync(ctx, emitter, ev, log)
	}
}
