package sqsfake

import (
	"fmt"
	"net/http"
)

func ErrorInvalidParameterValue() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#InvalidParameterValue",
	}
}

func ErrorMissingParameter() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#MissingParameter",
	}
}

func ErrorInvalidAttributeName() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#InvalidAttributeName",
	}
}

func ErrorInvalidAttributeValue() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#InvalidAttributeValue",
	}
}

func ErrorQueueNameExists() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#QueueNameExists",
	}
}

func ErrorQueueDoesNotExist() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#QueueDoesNotExist",
		Message:    "The specified queue does not exist.",
	}
}

func ErrorReceiptHandleIsInvalid() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#ReceiptHandleIsInvalid",
	}
}

func ErrorInvalidMessageContents() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#InvalidMessageContents",
	}
}

func ErrorSerialization() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#SerializationException",
	}
}

func ErrorUnsupportedOperation() *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Type:       "com.amazonaws.sqs#UnsupportedOperation",
	}
}

// Error is the json wire form of an sqs fault.
//
// The sdk reads the code after the '#' in Type.
type Error struct {
	StatusCode int    `json:"-"`
	Type       string `json:"__type"`
	Message    string `json:"message"`
}

func (e Error) WithMessage(message string) *Error {
	e.Message = message
	return &e
}

func (e Error) WithMessagef(format string, args ...any) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return &e
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}
