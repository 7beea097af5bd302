package models

import "time"

type StateResponse struct {
	Operational bool      `json:"operational"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type CallerResponse struct {
	Address      string    `json:"address"`
	AuthorizedBy string    `json:"authorized_by,omitempty"`
	AuthorizedAt time.Time `json:"authorized_at,omitzero"`
	Owner        bool      `json:"owner,omitempty"`
}

type CallersResponse struct {
	Callers []CallerResponse `json:"callers"`
}

type ChangeResponse struct {
	Address string `json:"address"`
	Changed bool   `json:"changed"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Subject     string    `json:"subject"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewStateResponse(s *State) StateResponse {
	return StateResponse{
		Operational: s.Operational,
		UpdatedBy:   s.UpdatedBy.String(),
		UpdatedAt:   s.UpdatedAt,
	}
}
