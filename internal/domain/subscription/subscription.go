package subscription

import (
	"fmt"
	"strings"
	"time"
)

// Status of a subscription row.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// MonitoringType names what kind of assets a subscription covers.
type MonitoringType string

const (
	MonitorPatents    MonitoringType = "PATENT"
	MonitorTrademarks MonitoringType = "TRADEMARK"
)

// AlertFrequency is how often digests are delivered for a subscription.
type AlertFrequency string

const (
	AlertRealtime AlertFrequency = "REALTIME"
	AlertDaily    AlertFrequency = "DAILY"
	AlertWeekly   AlertFrequency = "WEEKLY"
)

// Subscription is a user's monitoring plan.
type Subscription struct {
	ID               string
	UserID           string
	MonitoringType   MonitoringType
	Tier             Tier
	AlertFrequency   AlertFrequency
	EmailEnabled     bool
	DashboardEnabled bool
	Status           Status
	CreatedAt        time.Time
}

// ConfigTuple is the identity the duplicate-active check runs on: the full
// configuration, not just (user, type). Two ACTIVE subscriptions may never
// share a tuple.
func (s *Subscription) ConfigTuple() string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s|%s|%t|%t",
		s.UserID, s.MonitoringType, s.Tier, s.AlertFrequency, s.EmailEnabled, s.DashboardEnabled))
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}
