// Package store persists the insurance ledger: policies grouped by policy
// key, credit balances and the withdrawal journal. Stores hold no business
// rules; arithmetic and overflow checks live in the service.
package store
