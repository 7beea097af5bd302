package models

import (
	"time"

	"flightsurety/pkg/domain"
)

// Airline is a participant known to the registry. It enters as a candidate
// and is never deleted.
type Airline struct {
	ID                domain.Address
	Name              string
	IsRegistered      bool
	FundingSubmitted  bool
	RegistrationVotes uint64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCandidate reports whether the airline still awaits promotion.
func (a *Airline) IsCandidate() bool {
	return !a.IsRegistered
}

// Vote is the single counted vote of Voter for Candidate.
type Vote struct {
	Voter     domain.Address
	Candidate domain.Address
	CastAt    time.Time
}

// Registration is the outcome of RegisterCandidate.
type Registration struct {
	Airline *Airline
	Created bool
}

// VoteResult is the tally after a vote call. Recorded is false when the voter
// had already voted for the candidate.
type VoteResult struct {
	Candidate domain.Address
	Votes     uint64
	Recorded  bool
}
