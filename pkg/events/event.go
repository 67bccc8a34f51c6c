package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the recommendation service.
const (
	TypeMovieRated       = "preferences.movie_rated"
	TypeWatchlistAdded   = "preferences.watchlist_added"
	TypeWatchlistRemoved = "preferences.watchlist_removed"
	TypeMovieViewed      = "preferences.movie_viewed"
)

// BaseEvent is a basic implementation of the Event interface
type BaseEvent struct {
	ID    string                 `json:"id"`
	Type  string                 `json:"type"`
	Time  int64                  `json:"timestamp"`
	AggID string                 `json:"aggregate_id"`
	Data  map[string]interface{} `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType string, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		ID:   uuid.NewString(),
		Type: eventType,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// NewAggregateEvent creates a new event with an aggregate ID
func NewAggregateEvent(eventType string, aggregateID string, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		ID:    uuid.NewString(),
		Type:  eventType,
		Time:  time.Now().UnixNano(),
		AggID: aggregateID,
		Data:  data,
	}
}

// EventID returns the unique id of this event instance
func (e *BaseEvent) EventID() string {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseEvent) EventType() string {
	return e.Type
}

// Timestamp returns when the event occurred
func (e *BaseEvent) Timestamp() int64 {
	return e.Time
}

// AggregateID returns the ID of the aggregate that produced the event
func (e *BaseEvent) AggregateID() string {
	return e.AggID
}
