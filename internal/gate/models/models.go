package models

import (
	"time"

	"flightsurety/pkg/domain"
)

// State is the process-wide operational flag with its last writer.
type State struct {
	Operational bool
	UpdatedBy   domain.Address
	UpdatedAt   time.Time
}

// AuthorizedCaller is one allow-list entry.
type AuthorizedCaller struct {
	Address      domain.Address
	AuthorizedBy domain.Address
	AuthorizedAt time.Time
}
