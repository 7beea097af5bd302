// Package validation holds the trust-boundary limits shared by request types.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	dErrors "flightsurety/pkg/domain-errors"
)

// MaxBodySize is the largest JSON request body the API accepts (64 KB).
const MaxBodySize = 64 * 1024

const (
	// MaxAirlineNameLength is counted in runes.
	MaxAirlineNameLength = 128

	// MaxFlightCodeLength is counted in bytes; codes appear in URLs and keys.
	MaxFlightCodeLength = 32
)

// CheckRequired rejects an empty value.
func CheckRequired(fieldName, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, fieldName+" is required")
	}
	return nil
}

// CheckStringLength validates that a string does not exceed max runes.
func CheckStringLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckPathSegment rejects values that cannot travel as a single URL path
// segment: whitespace and slashes.
func CheckPathSegment(fieldName, value string) error {
	if strings.ContainsAny(value, " \t\r\n/") {
		return dErrors.New(dErrors.CodeValidation, fieldName+" contains invalid characters")
	}
	return nil
}
