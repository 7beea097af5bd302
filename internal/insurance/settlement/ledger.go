package settlement

import (
	"context"
	"sort"
	"sync"
	"time"

	"flightsurety/pkg/domain"
	platformsync "flightsurety/pkg/platform/sync"
)

// Payout is a transfer the LedgerChannel accepted.
type Payout struct {
	ID          domain.WithdrawalID
	Destination domain.Address
	Amount      uint64
	Reference   string
	PaidAt      time.Time
}

// LedgerChannel settles in process by recording payouts. It backs the dev
// deployment and tests. Repeating a request ID returns the original reference
// without paying again.
type LedgerChannel struct {
	locks   *platformsync.ShardedMutex
	mu      sync.RWMutex
	payouts map[domain.WithdrawalID]Payout
	now     func() time.Time
}

func NewLedgerChannel() *LedgerChannel {
	return &LedgerChannel{
		locks:   platformsync.NewShardedMutex(),
		payouts: make(map[domain.WithdrawalID]Payout),
		now:     time.Now,
	}
}

func (l *LedgerChannel) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newTransferError(ErrorTimeout, "ledger", "transfer cancelled", err)
	}
	if req.Amount == 0 || req.Destination.IsNil() || req.ID.IsNil() {
		return "", newTransferError(ErrorRejected, "ledger", "invalid transfer request", nil)
	}

	var ref string
	l.locks.WithLock(req.ID.String(), func() {
		l.mu.RLock()
		existing, ok := l.payouts[req.ID]
		l.mu.RUnlock()
		if ok {
			ref = existing.Reference
			return
		}
		p := Payout{
			ID:          req.ID,
			Destination: req.Destination,
			Amount:      req.Amount,
			Reference:   "ledger-" + req.ID.String(),
			PaidAt:      l.now().UTC(),
		}
		l.mu.Lock()
		l.payouts[req.ID] = p
		l.mu.Unlock()
		ref = p.Reference
	})
	return ref, nil
}

// Payouts returns everything paid to dest, oldest first.
func (l *LedgerChannel) Payouts(dest domain.Address) []Payout {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Payout
	for _, p := range l.payouts {
		if p.Destination == dest {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out
}

// TotalPaid sums every payout to dest.
func (l *LedgerChannel) TotalPaid(dest domain.Address) uint64 {
	var total uint64
	for _, p := range l.Payouts(dest) {
		total += p.Amount
	}
	return total
}
