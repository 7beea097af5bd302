package models

import (
	"strings"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/validation"
)

type RegisterFlightRequest struct {
	Airline   string `json:"airline"`
	Code      string `json:"code"`
	Timestamp *int64 `json:"timestamp"`

	ParsedAirline domain.Address `json:"-"`
}

func (r *RegisterFlightRequest) Normalize() {
	r.Airline = strings.TrimSpace(r.Airline)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *RegisterFlightRequest) Validate() error {
	airline, err := domain.ParseAddress(r.Airline)
	if err != nil {
		return err
	}
	if err := ValidateCode(r.Code); err != nil {
		return err
	}
	if r.Timestamp == nil {
		return dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}
	if *r.Timestamp < 0 {
		return dErrors.New(dErrors.CodeValidation, "timestamp must not be negative")
	}
	r.ParsedAirline = airline
	return nil
}

// ValidateCode checks a flight code as used in URLs and keys.
func ValidateCode(code string) error {
	if err := validation.CheckRequired("flight code", code); err != nil {
		return err
	}
	if len(code) > validation.MaxFlightCodeLength {
		return dErrors.New(dErrors.CodeValidation, "flight code exceeds max length of 32")
	}
	return validation.CheckPathSegment("flight code", code)
}
