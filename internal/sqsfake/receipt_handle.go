package sqsfake

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/carqueue/carqueue/internal/uuid"
)

// ReceiptHandle is eventually turned into the opaque
// handle string for messages returned by [Queue.Receive].
//
// Every receive of a message mints a new handle.
type ReceiptHandle struct {
	ID           uuid.UUID
	QueueARN     string
	MessageID    uuid.UUID
	LastReceived time.Time
}

// String returns a string form of the receipt handle.
func (r ReceiptHandle) String() string {
	return base64.StdEncoding.EncodeToString(
		fmt.Appendf(nil, "%s %s %s %s",
			r.ID.Hex(),
			r.QueueARN,
			r.MessageID,
			r.LastReceived.Format(time.RFC3339Nano),
		),
	)
}
