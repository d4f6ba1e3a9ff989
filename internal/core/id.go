package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewEventID returns a history event id that sorts by creation time: a
// hex-encoded UnixNano prefix followed by 64 random bits.
func NewEventID(at time.Time) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%016x", at.UTC().UnixNano())
	}
	return fmt.Sprintf("%016x-%s", at.UTC().UnixNano(), hex.EncodeToString(buf))
}
