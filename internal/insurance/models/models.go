package models

import (
	"math"
	"time"

	"flightsurety/internal/keys"
	"flightsurety/pkg/domain"
)

// CreditDenominator is the fixed denominator of the payout multiplier:
// a multiplier of 15 pays 1.5 times the insured amount.
const CreditDenominator = 10

// MaxAmount bounds insured amounts and balances to what both backends can
// store.
const MaxAmount uint64 = math.MaxInt64

type Policy struct {
	Insuree     domain.Address
	Amount      uint64
	PurchasedAt time.Time
}

// Purchase is the result of BuyPolicy.
type Purchase struct {
	Key    keys.Key
	Policy Policy
}

// Credit is what one policy paid out during settlement.
type Credit struct {
	Insuree domain.Address
	Amount  uint64
	Payout  uint64
}

// Settlement summarizes a CreditInsurees call. An empty Credits slice means
// the key had no open policies.
type Settlement struct {
	Key        keys.Key
	Multiplier uint64
	Credits    []Credit
	Total      uint64
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalFailed    WithdrawalStatus = "failed"
)

// Withdrawal journals one payout attempt. A pending entry means the balance
// was zeroed and the transfer outcome has not been recorded yet.
type Withdrawal struct {
	ID            domain.WithdrawalID
	Insuree       domain.Address
	Amount        uint64
	Status        WithdrawalStatus
	Reference     string
	FailureReason string
	CreatedAt     time.Time
	SettledAt     time.Time
}
