// Package keys derives the deterministic storage keys shared by the flight
// registry and the insurance ledger. Both components agree on the scheme only;
// neither reads the other's state.
package keys

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// Key is a keccak-256 digest addressing a flight or a policy bucket.
type Key [32]byte

// Flight returns the key of a flight: keccak256(airline, code, timestamp).
func Flight(airline id.Address, code string, timestamp int64) Key {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	return digest([]byte(airline), []byte(code), ts[:])
}

// Policy returns the settlement bucket of a flight: keccak256(airline, code).
// The timestamp is deliberately absent so every departure of a flight code
// settles from the same bucket.
func Policy(airline id.Address, code string) Key {
	return digest([]byte(airline), []byte(code))
}

// String renders the key as 0x-prefixed lower-case hex.
func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// Parse decodes a 0x-prefixed hex key.
func Parse(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if err != nil || len(raw) != len(k) {
		return k, dErrors.New(dErrors.CodeInvalidInput, "invalid key format")
	}
	copy(k[:], raw)
	return k, nil
}

// digest length-prefixes every field so ("ab","c") and ("a","bc") never collide.
func digest(fields ...[]byte) Key {
	h := sha3.NewLegacyKeccak256()
	var size [4]byte
	for _, f := range fields {
		binary.BigEndian.PutUint32(size[:], uint32(len(f)))
		h.Write(size[:])
		h.Write(f)
	}
	var k Key
	h.Sum(k[:0])
	return k
}
