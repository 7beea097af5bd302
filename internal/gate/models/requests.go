package models

import (
	"strings"
	"time"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

type SetOperationalRequest struct {
	Operational *bool `json:"operational"`
}

func (r *SetOperationalRequest) Validate() error {
	if r.Operational == nil {
		return dErrors.New(dErrors.CodeValidation, "operational is required")
	}
	return nil
}

type AuthorizeCallerRequest struct {
	Address string `json:"address"`

	Parsed domain.Address `json:"-"`
}

func (r *AuthorizeCallerRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

func (r *AuthorizeCallerRequest) Validate() error {
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.Parsed = addr
	return nil
}

type IssueTokenRequest struct {
	Address string `json:"address"`
	TTL     string `json:"ttl,omitempty"`

	Parsed    domain.Address `json:"-"`
	ParsedTTL time.Duration  `json:"-"`
}

// MaxTokenTTL caps tokens minted through the admin API.
const MaxTokenTTL = 30 * 24 * time.Hour

func (r *IssueTokenRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
	r.TTL = strings.TrimSpace(r.TTL)
}

func (r *IssueTokenRequest) Validate() error {
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.Parsed = addr
	if r.TTL == "" {
		return nil
	}
	ttl, err := time.ParseDuration(r.TTL)
	if err != nil || ttl <= 0 {
		return dErrors.New(dErrors.CodeValidation, "ttl must be a positive duration such as 1h")
	}
	if ttl > MaxTokenTTL {
		return dErrors.New(dErrors.CodeValidation, "ttl must not exceed 720h")
	}
	r.ParsedTTL = ttl
	return nil
}
