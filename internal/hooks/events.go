// Package hooks lets operators observe relay lifecycle events (feed
// connect/disconnect, WS client churn, telemetry publish outcomes) without
// wiring a custom collector into the core pipeline.
package hooks

import "time"

// EventType names a kind of lifecycle event a hook may react to.
type EventType string

const (
	EventFeedConnected    EventType = "feed_connected"
	EventFeedDisconnected EventType = "feed_disconnected"
	EventFeedReconnecting EventType = "feed_reconnecting"

	EventWSClientConnected    EventType = "ws_client_connected"
	EventWSClientDisconnected EventType = "ws_client_disconnected"

	EventTelemetryPublished      EventType = "telemetry_published"
	EventTelemetryPublishFailed  EventType = "telemetry_publish_failed"
)

// Event represents a single lifecycle occurrence that can trigger hooks.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	FeedID    string                 `json:"feed_id,omitempty"`
	Topic     string                 `json:"topic,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType) *Event {
	return &Event{Type: eventType, Timestamp: time.Now().Unix(), Data: make(map[string]interface{})}
}

// WithFeedID sets the feed identifier for the event.
func (e *Event) WithFeedID(feedID string) *Event {
	e.FeedID = feedID
	return e
}

// WithTopic sets the telemetry topic for the event.
func (e *Event) WithTopic(topic string) *Event {
	e.Topic = topic
	return e
}

// WithData adds one data field to the event.
func (e *Event) WithData(key string, value interface{}) *Event {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}

// String returns a human-readable representation of the event.
func (e *Event) String() string {
	if e.Topic != "" {
		return string(e.Type) + ":" + e.Topic
	}
	if e.FeedID != "" {
		return string(e.Type) + ":" + e.FeedID
	}
	return string(e.Type)
}
