// Package gate defines the access check every ledger operation performs
// before touching state.
package gate

import (
	"context"

	"flightsurety/pkg/domain"
)

//go:generate mockgen -source=checker.go -destination=mocks/checker_mock.go -package=mocks Checker

// Mode selects what the caller is about to do.
type Mode int

const (
	// ModeRead requires only that the caller is authorized.
	ModeRead Mode = iota
	// ModeMutate additionally requires the system to be operational.
	ModeMutate
)

func (m Mode) String() string {
	if m == ModeMutate {
		return "mutate"
	}
	return "read"
}

// Checker answers whether caller may proceed in mode. It returns a domain
// error coded not_authorized or system_not_operational on denial.
type Checker interface {
	Check(ctx context.Context, caller domain.Address, mode Mode) error
}
