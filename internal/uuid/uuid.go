package uuid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// UUID represents a unique identifier conforming to the RFC 4122 standard.
// UUIDs are a fixed 128bit (16 byte) binary blob.
type UUID [16]byte

// V4 returns a new random uuid.
func V4() (output UUID) {
	_, _ = rand.Read(output[:])
	output[6] = (output[6] & 0x0f) | 0x40 // version 4
	output[8] = (output[8] & 0x3f) | 0x80 // variant is 10
	return
}

// String returns the uuid in its dashed form, which is
// the form sqs uses for message ids.
func (uuid UUID) String() string {
	b := uuid[:]
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// Hex returns the uuid as an undashed hex string.
func (uuid UUID) Hex() string {
	return hex.EncodeToString(uuid[:])
}
