package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/ipsentinel/ipsentinel/internal/domain/lifecycle"
)

// EventType classifies a tracking event.
type EventType string

const (
	EventLifecycleUpdate EventType = "LIFECYCLE_UPDATE"
	EventStatusChange    EventType = "STATUS_CHANGE"
	EventRenewalReminder EventType = "RENEWAL_REMINDER"
	EventExpiryWarning   EventType = "EXPIRY_WARNING"
)

// TrackingEvent is an ephemeral change notification produced by the
// scheduler and handed to the notification boundary. It is not durably
// stored by this system.
type TrackingEvent struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	AssetID   string             `json:"asset_id"`
	Type      EventType          `json:"type"`
	Previous  string             `json:"previous,omitempty"`
	Current   string             `json:"current,omitempty"`
	Severity  lifecycle.Severity `json:"severity"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewEvent builds a tracking event with a fresh id and timestamp.
func NewEvent(userID, assetID string, typ EventType, previous, current string, severity lifecycle.Severity) TrackingEvent {
	return TrackingEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		AssetID:   assetID,
		Type:      typ,
		Previous:  previous,
		Current:   current,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher is the notification boundary: delivery is fire-and-forget and
// must never block the scheduler.
type Publisher interface {
	PublishAsync(event TrackingEvent)
}
