// Package subscription implements the monitoring-tier model and the gating
// rules that bound how much tracking a user may do.
package subscription

import (
	"strings"
	"time"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// Tier is a subscription level.
type Tier string

const (
	TierBasic        Tier = "BASIC"
	TierProfessional Tier = "PROFESSIONAL"
	TierEnterprise   Tier = "ENTERPRISE"
)

func (t Tier) String() string { return string(t) }

// ParseTier normalizes a raw tier string.
func ParseTier(raw string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := tierLimits[t]; !ok {
		return "", errors.Newf(errors.ErrCodeUnknownTier, "unknown tier %q", raw)
	}
	return t, nil
}

// TierLimits bounds a tier's tracking volume and poll cadence.
type TierLimits struct {
	MaxTrackedAssets int
	PollInterval     time.Duration
	RealTimeAlerts   bool
}

// tierLimits is the process-wide static tier table. It is configuration in
// the contractual sense: callers depend on these exact values, they are not
// tunable per deployment.
var tierLimits = map[Tier]TierLimits{
	TierBasic:        {MaxTrackedAssets: 5, PollInterval: 24 * time.Hour, RealTimeAlerts: false},
	TierProfessional: {MaxTrackedAssets: 50, PollInterval: 6 * time.Hour, RealTimeAlerts: false},
	TierEnterprise:   {MaxTrackedAssets: 500, PollInterval: time.Hour, RealTimeAlerts: true},
}

// LimitsFor resolves a tier into its numeric and temporal limits.
func LimitsFor(tier Tier) (TierLimits, error) {
	limits, ok := tierLimits[tier]
	if !ok {
		return TierLimits{}, errors.Newf(errors.ErrCodeUnknownTier, "unknown tier %q", tier)
	}
	return limits, nil
}
