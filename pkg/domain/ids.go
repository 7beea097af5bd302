// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "flightsurety/pkg/domain-errors"
)

// maxAddressLength bounds opaque identities accepted at trust boundaries.
const maxAddressLength = 128

// Address is an opaque participant identity (airline, voter, insuree or caller).
// Hex account addresses ("0x" + 40 hex digits) are normalized to lower case so
// checksummed and plain spellings resolve to the same key.
type Address string

// WithdrawalID identifies one entry in the withdrawal journal.
type WithdrawalID uuid.UUID

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if len(s) > maxAddressLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 128 characters or less")
	}
	if strings.ContainsAny(s, " \t\r\n/") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address contains invalid characters")
	}
	if isHexAddress(s) {
		s = strings.ToLower(s)
	}
	return Address(s), nil
}

func ParseWithdrawalID(s string) (WithdrawalID, error) {
	if s == "" {
		return WithdrawalID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "withdrawal ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return WithdrawalID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid withdrawal ID format")
	}
	return WithdrawalID(id), nil
}

func NewWithdrawalID() WithdrawalID { return WithdrawalID(uuid.New()) }

// String methods - for logging and debugging.

func (a Address) String() string       { return string(a) }
func (id WithdrawalID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (a Address) IsNil() bool       { return a == "" }
func (id WithdrawalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func isHexAddress(s string) bool {
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
