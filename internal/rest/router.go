// Package rest is the HTTP/JSON gateway over the sleep log and user services.
package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/audit"
	"sleeptracker/backend/internal/logger"
	"sleeptracker/backend/internal/server/interceptors"
	sleephandler "sleeptracker/backend/internal/sleeplog/handler"
	"sleeptracker/backend/internal/telemetry"
	userhandler "sleeptracker/backend/internal/user/handler"
)

// Readiness reports whether the backing dependencies are usable.
type Readiness interface {
	Ready(ctx context.Context) error
}

// Deps holds the services behind the gateway. Nil SleepLogs or Users leaves their routes unregistered.
type Deps struct {
	SleepLogs sleephandler.SleepLogService
	Users     userhandler.UserService
	Health    Readiness
	Auditor   audit.AuditLogger
	Emitter   telemetry.EventEmitter
	Log       *zap.Logger
}

// readRoutes maps GET routes to the audit action and resource they record. Writes are audited by the services.
var readRoutes = map[string]audit.ActionResource{
	"/api/v1/user/:id":                   {Action: "get", Resource: "user"},
	"/api/v1/sleep/:id":                  {Action: "get", Resource: "sleep_log"},
	"/api/v1/sleep/:id/last-night":       {Action: "get_last_night", Resource: "sleep_log"},
	"/api/v1/sleep/:id/last-thirty-days": {Action: "aggregate", Resource: "sleep_log"},
	"/api/v1/sleep/user/:id":             {Action: "list", Resource: "sleep_log"},
}

// NewRouter returns a gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	log := logger.OrNop(deps.Log)
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(log, deps.Emitter), auditReads(deps.Auditor))

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_SERVING"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "SERVING"})
	})

	v1 := r.Group("/api/v1")
	if deps.Users != nil {
		u := &userRoutes{users: deps.Users, log: log}
		v1.POST("/user", u.create)
		v1.GET("/user/:id", u.get)
		v1.PUT("/user/:id", u.update)
		v1.DELETE("/user/:id", u.delete)
	}
	if deps.SleepLogs != nil {
		s := &sleepRoutes{svc: deps.SleepLogs, log: log}
		v1.POST("/sleep", s.create)
		v1.GET("/sleep/:id", s.get)
		v1.PUT("/sleep/:id", s.update)
		v1.DELETE("/sleep/:id", s.delete)
		v1.GET("/sleep/:id/last-night", s.lastNight)
		v1.GET("/sleep/:id/last-thirty-days", s.thirtyDayAverage)
		v1.GET("/sleep/user/:id", s.list)
	}
	return r
}

// auditReads records one audit entry per GET on a readRoutes route.
func auditReads(auditor audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if auditor == nil || c.Request.Method != http.MethodGet {
			return
		}
		ar, ok := readRoutes[c.FullPath()]
		if !ok {
			return
		}
		userID, _ := interceptors.GetUserID(c.Request.Context())
		auditor.LogEvent(c.Request.Context(), audit.Event{
			UserID:     userID,
			Action:     ar.Action,
			Resource:   ar.Resource,
			ResourceID: c.Param("id"),
			Metadata:   fmt.Sprintf(`{"status":%d}`, c.Writer.Status()),
		})
	}
}
