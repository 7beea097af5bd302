package models

import (
	"flightsurety/internal/keys"
	"flightsurety/pkg/domain"
)

// StatusUnknown is the only status this service ever writes. Other codes
// belong to the oracle protocol that reports flight outcomes.
const StatusUnknown uint8 = 0

// Flight is addressed by keys.Flight(Airline, Code, Timestamp). It holds only
// fields derived from the registration arguments, so registering the same
// flight twice yields an identical record.
type Flight struct {
	Key              keys.Key
	Airline          domain.Address
	Code             string
	Timestamp        int64
	IsRegistered     bool
	StatusCode       uint8
	UpdatedTimestamp int64
}
