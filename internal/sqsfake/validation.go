package sqsfake

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

var validQueueNameRegexp = regexp.MustCompile("^[0-9a-zA-Z_-]+$")

func validateQueueName(queueName string) *Error {
	if queueName == "" {
		return ErrorInvalidParameterValue().WithMessage("Queue name cannot be empty")
	}
	if len(queueName) > 80 || !validQueueNameRegexp.MatchString(queueName) {
		return ErrorInvalidParameterValue().WithMessage("Can only include alphanumeric characters, hyphens, or underscores. 1 to 80 in length")
	}
	return nil
}

func validateDelay(delay time.Duration) *Error {
	if delay < 0 || delay > 900*time.Second {
		return ErrorInvalidParameterValue().WithMessagef("DelaySeconds must be between 0 and 900 seconds, you put: %v", delay)
	}
	return nil
}

func validateMaximumMessageSizeBytes(maximumMessageSizeBytes int) *Error {
	if maximumMessageSizeBytes < 1024 || maximumMessageSizeBytes > 256*1024 {
		return ErrorInvalidAttributeValue().WithMessagef("MaximumMessageSize must be between 1024 and 262144 bytes, you put: %v", maximumMessageSizeBytes)
	}
	return nil
}

func validateMessageRetentionPeriod(messageRetentionPeriod time.Duration) *Error {
	if messageRetentionPeriod < 60*time.Second || messageRetentionPeriod > 14*24*time.Hour {
		return ErrorInvalidAttributeValue().WithMessagef("MessageRetentionPeriod must be between 60 seconds and 14 days, you put: %v", messageRetentionPeriod)
	}
	return nil
}

func validateReceiveMessageWaitTime(receiveMessageWaitTime time.Duration) *Error {
	if receiveMessageWaitTime < 0 || receiveMessageWaitTime > 20*time.Second {
		return ErrorInvalidAttributeValue().WithMessagef("ReceiveMessageWaitTimeSeconds must be between 0 and 20 seconds, you put: %v", receiveMessageWaitTime)
	}
	return nil
}

func validateWaitTimeSeconds(waitTime time.Duration) *Error {
	if waitTime < 0 || waitTime > 20*time.Second {
		return ErrorInvalidParameterValue().WithMessagef("WaitTimeSeconds must be between 0 and 20 seconds, you put: %v", waitTime)
	}
	return nil
}

func validateVisibilityTimeout(visibilityTimeout time.Duration) *Error {
	if visibilityTimeout < 0 || visibilityTimeout > 12*time.Hour {
		return ErrorInvalidParameterValue().WithMessagef("VisibilityTimeout must be between 0 seconds and 12 hours, you put: %v", visibilityTimeout)
	}
	return nil
}

func validateMaxNumberOfMessages(maxNumberOfMessages int32) *Error {
	if maxNumberOfMessages < 0 || maxNumberOfMessages > 10 {
		return ErrorInvalidParameterValue().WithMessagef("MaxNumberOfMessages must be between 1 and 10, you put: %d", maxNumberOfMessages)
	}
	return nil
}

func validateMessageBody(body *string, maximumMessageSizeBytes int) *Error {
	if body == nil || *body == "" {
		return ErrorInvalidParameterValue().WithMessage("One or more parameters are invalid. Reason: Message must be at least one character.")
	}
	if len(*body) > maximumMessageSizeBytes {
		return ErrorInvalidParameterValue().WithMessagef("One or more parameters are invalid. Reason: Message must be shorter than %d bytes.", maximumMessageSizeBytes)
	}
	if !utf8.ValidString(*body) {
		return ErrorInvalidMessageContents().WithMessage("Message body must be valid utf-8")
	}
	return nil
}

func requireParameter(name string, value *string) *Error {
	if value == nil || *value == "" {
		return ErrorMissingParameter().WithMessagef("The request must contain the parameter %s.", name)
	}
	return nil
}

var supportedQueueAttributes = map[types.QueueAttributeName]struct{}{
	types.QueueAttributeNameDelaySeconds:                  {},
	types.QueueAttributeNameMaximumMessageSize:            {},
	types.QueueAttributeNameMessageRetentionPeriod:        {},
	types.QueueAttributeNameReceiveMessageWaitTimeSeconds: {},
	types.QueueAttributeNameVisibilityTimeout:             {},
}

func validateQueueAttributeNames(attributes map[string]string) *Error {
	for name := range attributes {
		if _, ok := supportedQueueAttributes[types.QueueAttributeName(name)]; !ok {
			return ErrorInvalidAttributeName().WithMessagef("Unknown or unsupported attribute %s.", name)
		}
	}
	return nil
}

func readAttributeDurationSeconds(attributes map[string]string, attributeName types.QueueAttributeName) (output time.Duration, ok bool, err *Error) {
	var parsed int
	parsed, ok, err = readAttributeInt(attributes, attributeName)
	if err != nil || !ok {
		return
	}
	output = time.Duration(parsed) * time.Second
	return
}

func readAttributeInt(attributes map[string]string, attributeName types.QueueAttributeName) (output int, ok bool, err *Error) {
	var value string
	value, ok = attributes[string(attributeName)]
	if !ok {
		return
	}
	parsed, parseErr := strconv.Atoi(value)
	if parseErr != nil {
		err = ErrorInvalidAttributeValue().WithMessagef("%s failed to parse as integer: %v", attributeName, parseErr)
		return
	}
	output = parsed
	return
}
