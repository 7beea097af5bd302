package models

import (
	"strings"

	flightmodels "flightsurety/internal/flight/models"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

type BuyPolicyRequest struct {
	Airline string  `json:"airline"`
	Code    string  `json:"code"`
	Insuree string  `json:"insuree"`
	Amount  *uint64 `json:"amount"`

	ParsedAirline domain.Address `json:"-"`
	ParsedInsuree domain.Address `json:"-"`
}

func (r *BuyPolicyRequest) Normalize() {
	r.Airline = strings.TrimSpace(r.Airline)
	r.Code = strings.TrimSpace(r.Code)
	r.Insuree = strings.TrimSpace(r.Insuree)
}

func (r *BuyPolicyRequest) Validate() error {
	airline, err := domain.ParseAddress(r.Airline)
	if err != nil {
		return err
	}
	insuree, err := domain.ParseAddress(r.Insuree)
	if err != nil {
		return err
	}
	if err := flightmodels.ValidateCode(r.Code); err != nil {
		return err
	}
	if r.Amount == nil {
		return dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	if *r.Amount > MaxAmount {
		return dErrors.New(dErrors.CodeValidation, "amount is too large")
	}
	r.ParsedAirline = airline
	r.ParsedInsuree = insuree
	return nil
}

type CreditInsureesRequest struct {
	Multiplier *uint64 `json:"multiplier"`
}

func (r *CreditInsureesRequest) Validate() error {
	if r.Multiplier == nil {
		return dErrors.New(dErrors.CodeValidation, "multiplier is required")
	}
	return nil
}
