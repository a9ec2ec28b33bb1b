// Package notification is the boundary to the external notification collaborator. Callers hand
// over (user, event type, payload) and never wait for delivery.
package notification

import (
	"context"
	"time"

	"github.com/fekuna/marine-listing-service/internal/model"
)

type EventType string

const (
	EventListingPending  EventType = "listing.pending"
	EventListingApproved EventType = "listing.approved"
	EventListingRejected EventType = "listing.rejected"
	EventListingDeleted  EventType = "listing.deleted"

	EventSuggestionApproved EventType = "category_suggestion.approved"
	EventSuggestionRejected EventType = "category_suggestion.rejected"
	EventSuggestionMerged   EventType = "category_suggestion.merged"
)

// ListingEvent maps a listing status to the event announcing it.
func ListingEvent(status model.ListingStatus) EventType {
	switch status {
	case model.ListingApproved:
		return EventListingApproved
	case model.ListingRejected:
		return EventListingRejected
	case model.ListingDeleted:
		return EventListingDeleted
	}
	return EventListingPending
}

// SuggestionEvent maps a resolved suggestion status to the event announcing it.
func SuggestionEvent(status model.SuggestionStatus) EventType {
	switch status {
	case model.SuggestionApproved:
		return EventSuggestionApproved
	case model.SuggestionMerged:
		return EventSuggestionMerged
	}
	return EventSuggestionRejected
}

type Event struct {
	ID         string         `json:"event_id"`
	UserID     string         `json:"user_id"`
	EventType  EventType      `json:"event_type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"timestamp"`
}

// Notifier enqueues an event for delivery. It must not block on the collaborator and has no
// error result: delivery failures are handled out of band.
type Notifier interface {
	Notify(ctx context.Context, userID string, eventType EventType, payload map[string]any)
}

// Publisher delivers one encoded event. The Kafka producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}
