package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrBodyMismatch is matched by a [*BodyMismatchError].
	ErrBodyMismatch = errors.New("scenario; message body does not match car detail")
	// ErrIncomplete is matched by an [*IncompleteError].
	ErrIncomplete = errors.New("scenario; could not find all messages sent")
)

// BodyMismatchError is returned when a received body differs from the car that was sent.
type BodyMismatchError struct {
	MessageID string
	Diff      string
}

func (e *BodyMismatchError) Error() string {
	return fmt.Sprintf("body of the message %s doesn't match car detail\n%s", e.MessageID, e.Diff)
}

func (e *BodyMismatchError) Is(target error) bool { return target == ErrBodyMismatch }

// IncompleteError is returned when fewer cars were matched than were sent.
type IncompleteError struct {
	Sent  int
	Found int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("Couldn't find all messages sent. Were sent %d msgs, but found only %d msgs", e.Sent, e.Found)
}

func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }
