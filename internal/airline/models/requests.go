package models

import (
	"strings"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/validation"
)

type RegisterAirlineRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`

	Parsed domain.Address `json:"-"`
}

func (r *RegisterAirlineRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterAirlineRequest) Validate() error {
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	if err := validation.CheckRequired("name", r.Name); err != nil {
		return err
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxAirlineNameLength); err != nil {
		return err
	}
	r.Parsed = addr
	return nil
}
