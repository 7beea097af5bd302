package events

import (
	"time"
)

// Event is a committed domain change. Events are published only after the
// transaction that produced them commits, so subscribers never see a change
// that was rolled back.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	Actor      string            `json:"actor,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	RequestID  string            `json:"request_id,omitempty"`
}

type Type string

const (
	TypeOperationalChanged Type = "gate.operational_changed"
	TypeCallerAuthorized   Type = "gate.caller_authorized"
	TypeCallerDeauthorized Type = "gate.caller_deauthorized"

	TypeCandidateAdded  Type = "airline.candidate_added"
	TypeVoteRecorded    Type = "airline.vote_recorded"
	TypeAirlinePromoted Type = "airline.registered"
	TypeAirlineFunded   Type = "airline.funded"

	TypeFlightRegistered Type = "flight.registered"

	TypePolicyPurchased     Type = "insurance.policy_purchased"
	TypeInsureesCredited    Type = "insurance.insurees_credited"
	TypeWithdrawalCompleted Type = "insurance.withdrawal_completed"
	TypeWithdrawalFailed    Type = "insurance.withdrawal_failed"
)

// Matches reports whether the event type is selected by filter. An empty
// filter selects everything; a filter ending in "." selects a whole family.
func (t Type) Matches(filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == string(t) {
			return true
		}
		if n := len(f); n > 0 && f[n-1] == '.' && len(t) > n && string(t[:n]) == f {
			return true
		}
	}
	return false
}
