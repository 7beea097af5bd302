// Package settlement moves withdrawn credit to insurees. The ledger decides
// how much to pay whom; a Channel performs the transfer.
package settlement

import (
	"context"
	"fmt"

	"flightsurety/pkg/domain"
)

//go:generate mockgen -source=settlement.go -destination=mocks/channel_mock.go -package=mocks Channel

// TransferRequest is one payout. ID is the withdrawal id and doubles as the
// idempotency key, so a retried request never pays twice.
type TransferRequest struct {
	ID          domain.WithdrawalID
	Destination domain.Address
	Amount      uint64
}

// Channel performs value transfers. Any returned error means the transfer
// did not happen and the ledger restores the balance.
type Channel interface {
	Transfer(ctx context.Context, req TransferRequest) (reference string, err error)
}

// ErrorKind classifies transfer failures for logs and metrics.
type ErrorKind string

const (
	ErrorTimeout     ErrorKind = "timeout"
	ErrorUnavailable ErrorKind = "unavailable"
	ErrorRejected    ErrorKind = "rejected"
	ErrorCircuitOpen ErrorKind = "circuit_open"
	ErrorBadResponse ErrorKind = "bad_response"
	ErrorInternal    ErrorKind = "internal"
)

type TransferError struct {
	Kind    ErrorKind
	Channel string
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Channel, e.Message, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Channel, e.Message, e.Kind)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func newTransferError(kind ErrorKind, channel, msg string, err error) *TransferError {
	return &TransferError{Kind: kind, Channel: channel, Message: msg, Err: err}
}
