package models

import "time"

type AirlineResponse struct {
	Address           string    `json:"address"`
	Name              string    `json:"name"`
	IsRegistered      bool      `json:"is_registered"`
	FundingSubmitted  bool      `json:"funding_submitted"`
	RegistrationVotes uint64    `json:"registration_votes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type RegistrationResponse struct {
	Airline AirlineResponse `json:"airline"`
	Created bool            `json:"created"`
}

type VoteResponse struct {
	Candidate string `json:"candidate"`
	Votes     uint64 `json:"votes"`
	Recorded  bool   `json:"recorded"`
}

type HasVotedResponse struct {
	Voter     string `json:"voter"`
	Candidate string `json:"candidate"`
	Voted     bool   `json:"voted"`
}

type RegisteredListResponse struct {
	Airlines []string `json:"airlines"`
}

func NewAirlineResponse(a *Airline) AirlineResponse {
	return AirlineResponse{
		Address:           a.ID.String(),
		Name:              a.Name,
		IsRegistered:      a.IsRegistered,
		FundingSubmitted:  a.FundingSubmitted,
		RegistrationVotes: a.RegistrationVotes,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
