// Package store persists the access gate: the operational flag and the
// caller allow-list.
//
// Error contract: mutations report whether they changed anything instead of
// failing on repeats; infrastructure failures are wrapped with context.
package store
