package sqsfake

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/carqueue/carqueue/internal/uuid"
)

// NewMessageFromSendMessageInput returns the message a [sqs.SendMessageInput] describes.
func NewMessageFromSendMessageInput(input *sqs.SendMessageInput) Message {
	body := safeDeref(input.MessageBody)
	return Message{
		MessageID: uuid.V4(),
		Body:      body,
		MD5OfBody: md5sum(body),
	}
}

// Message is the immutable part of a sent message.
type Message struct {
	MessageID uuid.UUID
	Body      string
	MD5OfBody string
}

// MessageState is a message plus its delivery state within a queue.
type MessageState struct {
	Message
	Sequence          uint64
	SenderID          string
	Created           time.Time
	Delay             time.Duration
	RetentionPeriod   time.Duration
	VisibilityTimeout time.Duration

	/* these require the parent queue mutex */
	FirstReceived      time.Time
	LastReceived       time.Time
	VisibilityDeadline time.Time
	ReceiptHandle      string
	ReceiveCount       uint32
}

// MarkReceived records a receive at a given timestamp and
// hides the message until the visibility deadline.
func (s *MessageState) MarkReceived(timestamp time.Time, visibilityTimeout time.Duration, receiptHandle string) {
	if s.FirstReceived.IsZero() {
		s.FirstReceived = timestamp
	}
	s.ReceiveCount++
	s.LastReceived = timestamp
	s.VisibilityTimeout = visibilityTimeout
	s.VisibilityDeadline = timestamp.Add(visibilityTimeout)
	s.ReceiptHandle = receiptHandle
}

// IsVisible returns if the visibility deadline has passed.
func (s *MessageState) IsVisible(timestamp time.Time) bool {
	if s.VisibilityDeadline.IsZero() {
		return true
	}
	return !timestamp.Before(s.VisibilityDeadline)
}

// IsDelayed returns if the message is still within its delivery delay.
func (s *MessageState) IsDelayed(timestamp time.Time) bool {
	if s.Delay == 0 {
		return false
	}
	return timestamp.Before(s.Created.Add(s.Delay))
}

// IsExpired returns if the message has outlived the queue retention period.
func (s *MessageState) IsExpired(timestamp time.Time) bool {
	return timestamp.After(s.Created.Add(s.RetentionPeriod))
}

// ForReceiveMessageOutput renders the message for a receive response.
func (s *MessageState) ForReceiveMessageOutput(input *sqs.ReceiveMessageInput) types.Message {
	output := types.Message{
		MessageId:     aws.String(s.MessageID.String()),
		ReceiptHandle: aws.String(s.ReceiptHandle),
		Body:          aws.String(s.Body),
		MD5OfBody:     aws.String(s.MD5OfBody),
	}
	if names := requestedSystemAttributes(input); len(names) > 0 {
		output.Attributes = make(map[string]string)
		all := slices.Contains(names, "All")
		for _, name := range []string{
			MessageAttributeApproximateReceiveCount,
			MessageAttributeApproximateFirstReceiveTimestamp,
			MessageAttributeSentTimestamp,
			MessageAttributeSenderID,
		} {
			if !all && !slices.Contains(names, name) {
				continue
			}
			output.Attributes[name] = s.systemAttribute(name)
		}
	}
	return output
}

func (s *MessageState) systemAttribute(name string) string {
	switch name {
	case MessageAttributeApproximateReceiveCount:
		return strconv.FormatUint(uint64(s.ReceiveCount), 10)
	case MessageAttributeApproximateFirstReceiveTimestamp:
		return strconv.FormatInt(s.FirstReceived.UnixMilli(), 10)
	case MessageAttributeSentTimestamp:
		return strconv.FormatInt(s.Created.UnixMilli(), 10)
	case MessageAttributeSenderID:
		return s.SenderID
	default:
		return ""
	}
}

func (s *MessageState) String() string {
	return fmt.Sprintf("Message(id=%s)", s.MessageID)
}

func requestedSystemAttributes(input *sqs.ReceiveMessageInput) (output []string) {
	for _, name := range input.MessageSystemAttributeNames {
		output = append(output, string(name))
	}
	for _, name := range input.AttributeNames {
		output = append(output, string(name))
	}
	return
}
