// Package lifecycle derives the legal-standing status of patent and trademark
// records from their raw dates and register codes.  Every function in this
// package is pure: absent or malformed input maps to a defined default state,
// never an error.
package lifecycle

import "time"

// PatentStatus is the finite-state classification of a patent's standing.
type PatentStatus string

const (
	PatentPending   PatentStatus = "PENDING"
	PatentGranted   PatentStatus = "GRANTED"
	PatentExpired   PatentStatus = "EXPIRED"
	PatentWithdrawn PatentStatus = "WITHDRAWN"
	PatentUnknown   PatentStatus = "UNKNOWN"
)

func (s PatentStatus) String() string { return string(s) }

// patentTermYears is the standard patent term measured from the filing date.
const patentTermYears = 20

// PatentInput carries the raw facts a patent status is derived from.
// Now anchors the expiry comparison; the zero value means time.Now().
type PatentInput struct {
	ID             string
	FilingDate     *time.Time
	GrantDate      *time.Time
	ExpirationDate *time.Time
	Withdrawn      bool
	Now            time.Time
}

// PatentResult is the derived lifecycle state.
type PatentResult struct {
	ID             string
	Status         PatentStatus
	ExpirationDate *time.Time
}

// ComputeExpiry derives the expiration date from a filing date when the
// upstream record omits one: filing + 20 years.  A nil filing date yields nil.
func ComputeExpiry(filing *time.Time) *time.Time {
	if filing == nil {
		return nil
	}
	exp := filing.AddDate(patentTermYears, 0, 0)
	return &exp
}

// ComputePatent derives a patent's lifecycle status.
//
// Status precedence, highest first:
//
//	withdrawn            → WITHDRAWN
//	expiration in past   → EXPIRED
//	grant date present   → GRANTED
//	filing date present  → PENDING
//	otherwise            → UNKNOWN
//
// The ordering is a contract: expiry is checked before grant so that an
// expired-but-granted patent reports EXPIRED.
func ComputePatent(in PatentInput) PatentResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	exp := in.ExpirationDate
	if exp == nil {
		exp = ComputeExpiry(in.FilingDate)
	}

	res := PatentResult{ID: in.ID, ExpirationDate: exp}

	switch {
	case in.Withdrawn:
		res.Status = PatentWithdrawn
	case exp != nil && exp.Before(now):
		res.Status = PatentExpired
	case in.GrantDate != nil:
		res.Status = PatentGranted
	case in.FilingDate != nil:
		res.Status = PatentPending
	default:
		res.Status = PatentUnknown
	}
	return res
}
