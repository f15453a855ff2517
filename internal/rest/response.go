package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sleepdomain "sleeptracker/backend/internal/sleeplog/domain"
	userdomain "sleeptracker/backend/internal/user/domain"
	userservice "sleeptracker/backend/internal/user/service"
)

const statusSuccess = "SUCCESS"

// Meta accompanies every response body.
type Meta struct {
	TotalRecords    int    `json:"totalRecords"`
	TotalPages      int    `json:"totalPages"`
	RequestDateTime string `json:"requestDateTime"`
}

// Envelope is the success body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    Meta   `json:"meta"`
}

// DataError describes one failure.
type DataError struct {
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	StatusCode int    `json:"statusCode"`
}

// ErrorEnvelope is the failure body.
type ErrorEnvelope struct {
	Errors []DataError `json:"errors"`
	Meta   Meta        `json:"meta"`
}

func newMeta(totalRecords, totalPages int) Meta {
	return Meta{
		TotalRecords:    totalRecords,
		TotalPages:      totalPages,
		RequestDateTime: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Status: statusSuccess, Message: message, Data: data, Meta: newMeta(1, 1)})
}

func respondPage(c *gin.Context, message string, data any, totalRecords, totalPages int) {
	c.JSON(http.StatusOK, Envelope{Status: statusSuccess, Message: message, Data: data, Meta: newMeta(totalRecords, totalPages)})
}

// handleError maps a service error to an HTTP status and writes the error envelope.
func handleError(c *gin.Context, log *zap.Logger, err error) {
	de := toDataError(err)
	if de.StatusCode == http.StatusInternalServerError {
		log.Error("rest: request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
	} else {
		log.Info("rest: request rejected", zap.String("request_id", c.GetString(requestIDKey)), zap.Int("status", de.StatusCode), zap.Error(err))
	}
	c.AbortWithStatusJSON(de.StatusCode, ErrorEnvelope{Errors: []DataError{de}, Meta: newMeta(1, 1)})
}

func toDataError(err error) DataError {
	switch {
	case errors.Is(err, sleepdomain.ErrDuplicateDay):
		return DataError{Title: "CONFLICT EXCEPTION", Detail: err.Error(), StatusCode: http.StatusConflict}
	case errors.Is(err, sleepdomain.ErrMalformedInput),
		errors.Is(err, sleepdomain.ErrInvalidOrdering),
		errors.Is(err, sleepdomain.ErrOutOfWindow),
		errors.Is(err, sleepdomain.ErrInconsistentEndDate),
		errors.Is(err, userdomain.ErrInvalidName):
		return DataError{Title: "BAD REQUEST EXCEPTION", Detail: err.Error(), StatusCode: http.StatusBadRequest}
	case errors.Is(err, sleepdomain.ErrNotFound),
		errors.Is(err, sleepdomain.ErrEmptyWindow),
		errors.Is(err, userservice.ErrUserNotFound):
		return DataError{Title: "NOT FOUND EXCEPTION", Detail: err.Error(), StatusCode: http.StatusNotFound}
	default:
		return DataError{Title: "INTERNAL SERVER ERROR EXCEPTION", Detail: "An error occurred in the service.", StatusCode: http.StatusInternalServerError}
	}
}
