// Package uuid provides UUID v7 generation.
// UUID v7 sorts by creation time, which keeps the history table index cheap.
package uuid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// UUID represents a UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a new UUID v7 (draft-ietf-uuidrev-rfc4122bis layout):
// 48 bits of UNIX milliseconds, then version/variant bits over random data.
func NewV7() UUID {
	var u UUID

	now := uint64(time.Now().UnixMilli())
	binary.BigEndian.PutUint64(u[:8], now<<16)

	var random [10]byte
	_, _ = rand.Read(random[:]) // crypto/rand.Read never fails on supported platforms
	copy(u[6:], random[:])

	u[6] = 0x70 | (u[6] & 0x0f) // version 7
	u[7] = 0x80 | (u[7] & 0x3f) // RFC 4122 variant

	return u
}

// String returns the UUID in canonical form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}
