package lifecycle

import "strconv"

// TrademarkStatus is the finite-state classification of a trademark's
// standing on the register.
type TrademarkStatus string

const (
	TrademarkFiled      TrademarkStatus = "FILED"
	TrademarkPublished  TrademarkStatus = "PUBLISHED"
	TrademarkRegistered TrademarkStatus = "REGISTERED"
	TrademarkCancelled  TrademarkStatus = "CANCELLED"
)

func (s TrademarkStatus) String() string { return string(s) }

// Threshold bands over the numeric register status code.  The bands are a
// deliberate coarsening of the authoritative per-code table; the band is the
// single source of truth here, so boundary codes (e.g. 710) classify by band.
const (
	trademarkCancelledFloor  = 900
	trademarkRegisteredFloor = 800
	trademarkPublishedFloor  = 700
)

// ComputeTrademark derives a trademark's status from its raw register code.
// The code is parsed as an integer; an absent or non-numeric code maps to
// FILED.  Bands, highest first: ≥900 CANCELLED, ≥800 REGISTERED,
// ≥700 PUBLISHED, otherwise FILED.
func ComputeTrademark(rawStatusCode string) TrademarkStatus {
	code, err := strconv.Atoi(rawStatusCode)
	if err != nil {
		return TrademarkFiled
	}
	switch {
	case code >= trademarkCancelledFloor:
		return TrademarkCancelled
	case code >= trademarkRegisteredFloor:
		return TrademarkRegistered
	case code >= trademarkPublishedFloor:
		return TrademarkPublished
	default:
		return TrademarkFiled
	}
}
