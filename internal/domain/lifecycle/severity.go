package lifecycle

// Severity grades how urgent a status transition is for the subscriber.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) String() string { return string(s) }

// TransitionSeverity grades a status transition by the state being reached.
// Terminal removals from the register (withdrawal, cancellation) are
// critical; expiry is a warning; everything else, including reaching
// GRANTED or REGISTERED, is informational.
func TransitionSeverity(previous, current string) Severity {
	switch current {
	case PatentWithdrawn.String(), TrademarkCancelled.String():
		return SeverityCritical
	case PatentExpired.String():
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
