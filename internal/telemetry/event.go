package telemetry

import (
	"encoding/json"
	"time"
)

// Event types emitted by the server.
const (
	EventGRPCRequest     = "grpc_request"
	EventHTTPRequest     = "http_request"
	EventSleepLogCreated = "sleep_log_created"
	EventSleepLogUpdated = "sleep_log_updated"
	EventSleepLogDeleted = "sleep_log_deleted"
	EventAggregateServed = "thirty_day_average_served"
)

// Event is one telemetry record. It is serialized as JSON on the Kafka topic and read back by the worker.
type Event struct {
	UserID    string          `json:"userId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent returns an Event with CreatedAt set to now (UTC) and metadata marshaled from meta.
// A meta that fails to marshal is dropped.
func NewEvent(eventType, source, userID string, meta any) *Event {
	ev := &Event{
		UserID:    userID,
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			ev.Metadata = b
		}
	}
	return ev
}
