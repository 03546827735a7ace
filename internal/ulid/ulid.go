// Package ulid generates lexically sortable identifiers for jobs and
// sessions: a 48-bit millisecond timestamp followed by 80 bits of entropy,
// Crockford Base32 encoded to 26 characters.
package ulid

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	mu      sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

// New returns an identifier that sorts after every identifier previously
// returned by this process.
func New() string {
	return newAt(time.Now())
}

func newAt(now time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	ts := uint64(now.UnixMilli())
	if ts <= lastTS {
		ts = lastTS
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint16(b[0:2], uint16(ts>>32))
	binary.BigEndian.PutUint32(b[2:6], uint32(ts))
	rand.Read(b[8:])
	// The sequence occupies the top of the entropy so same-millisecond IDs
	// stay ordered.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)
	return encode(b)
}

// encode writes 130 bits (two leading zero bits plus the 128 input bits) as
// 26 base32 digits.
func encode(b [16]byte) string {
	var out [26]byte
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// Valid reports whether s has the shape of an identifier from New.
func Valid(s string) bool {
	if len(s) != 26 || s[0] > '7' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isCrockford(s[i]) {
			return false
		}
	}
	return true
}

func isCrockford(c byte) bool {
	for i := 0; i < len(crockford); i++ {
		if crockford[i] == c {
			return true
		}
	}
	return false
}
