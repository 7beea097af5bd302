// Package store persists the airline registry: airlines, the vote ledger and
// the promotion order.
//
// Error contract: Get returns sentinel.ErrNotFound for unknown identities.
// Insert-style methods report whether a row was created instead of failing
// on repeats.
package store
