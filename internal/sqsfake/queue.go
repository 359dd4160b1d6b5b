package sqsfake

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jonboulle/clockwork"

	"github.com/carqueue/carqueue/internal/uuid"
)

// Location is where queues of a server live.
type Location struct {
	BaseURL   string
	Region    string
	AccountID string
}

// FormatQueueURL creates a queue url from required inputs.
func FormatQueueURL(location Location, queueName string) string {
	return fmt.Sprintf("%s/%s/%s", coalesceZero(location.BaseURL, DefaultBaseURL), coalesceZero(location.AccountID, DefaultAccountID), queueName)
}

// FormatQueueARN creates a queue arn from required inputs.
func FormatQueueARN(location Location, queueName string) string {
	return fmt.Sprintf("arn:aws:sqs:%s:%s:%s", coalesceZero(location.Region, DefaultRegion), coalesceZero(location.AccountID, DefaultAccountID), queueName)
}

// NewQueueFromCreateQueueInput returns a new queue for a given [sqs.CreateQueueInput].
func NewQueueFromCreateQueueInput(clock clockwork.Clock, location Location, input *sqs.CreateQueueInput) (*Queue, *Error) {
	if err := requireParameter("QueueName", input.QueueName); err != nil {
		return nil, err
	}
	if err := validateQueueName(*input.QueueName); err != nil {
		return nil, err
	}
	if err := validateQueueAttributeNames(input.Attributes); err != nil {
		return nil, err
	}
	now := clock.Now()
	queue := &Queue{
		Name:       *input.QueueName,
		URL:        FormatQueueURL(location, *input.QueueName),
		ARN:        FormatQueueARN(location, *input.QueueName),
		Attributes: maps.Clone(input.Attributes),
		Tags:       maps.Clone(input.Tags),

		Delay:                   0,
		MaximumMessageSizeBytes: DefaultQueueMaximumMessageSizeBytes,
		MessageRetentionPeriod:  DefaultQueueMessageRetentionPeriod,
		ReceiveMessageWaitTime:  DefaultQueueReceiveMessageWaitTime,
		VisibilityTimeout:       DefaultQueueVisibilityTimeout,

		clock:    clock,
		created:  now,
		delayed:  make(map[uuid.UUID]*MessageState),
		inflight: make(map[string]*MessageState),
	}
	if err := queue.applyQueueAttributes(input.Attributes); err != nil {
		return nil, err
	}
	return queue, nil
}

// Queue is an individual standard queue.
type Queue struct {
	Name string
	URL  string
	ARN  string

	Attributes map[string]string
	Tags       map[string]string

	Delay                   time.Duration
	MaximumMessageSizeBytes int
	MessageRetentionPeriod  time.Duration
	ReceiveMessageWaitTime  time.Duration
	VisibilityTimeout       time.Duration

	clock   clockwork.Clock
	created time.Time

	mu       sync.Mutex
	sequence uint64
	ready    []*MessageState
	delayed  map[uuid.UUID]*MessageState
	inflight map[string]*MessageState
	stats    QueueStats
}

// QueueStats are basic statistics about the queue.
type QueueStats struct {
	NumMessages           int64
	NumMessagesReady      int64
	NumMessagesDelayed    int64
	NumMessagesInflight   int64
	TotalMessagesSent     uint64
	TotalMessagesReceived uint64
	TotalMessagesDeleted  uint64
	TotalMessagesPurged   uint64
	TotalMessagesExpired  uint64
}

// Created returns the timestamp the queue was created.
func (q *Queue) Created() time.Time {
	return q.created
}

// HasAttributes returns if the queue was created with exactly the same attributes.
func (q *Queue) HasAttributes(attributes map[string]string) bool {
	return maps.Equal(q.Attributes, attributes)
}

// NewMessageState wraps a message with the queue's delivery settings.
func (q *Queue) NewMessageState(m Message, delaySeconds int32, senderID string) (*MessageState, *Error) {
	delay := q.Delay
	if delaySeconds > 0 {
		delay = time.Duration(delaySeconds) * time.Second
	}
	if err := validateDelay(delay); err != nil {
		return nil, err
	}
	return &MessageState{
		Message:           m,
		SenderID:          senderID,
		Created:           q.clock.Now(),
		Delay:             delay,
		RetentionPeriod:   q.MessageRetentionPeriod,
		VisibilityTimeout: q.VisibilityTimeout,
	}, nil
}

// Push adds messages to the queue, holding back any that are delayed.
func (q *Queue) Push(msgs ...*MessageState) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	for _, m := range msgs {
		q.sequence++
		m.Sequence = q.sequence
		q.stats.TotalMessagesSent++
		q.stats.NumMessages++
		if m.IsDelayed(now) {
			q.stats.NumMessagesDelayed++
			q.delayed[m.MessageID] = m
			continue
		}
		q.stats.NumMessagesReady++
		q.ready = append(q.ready, m)
	}
}

// Receive returns up to MaxNumberOfMessages ready messages and moves them in flight.
//
// It never blocks; long polling is the server's concern.
func (q *Queue) Receive(input *sqs.ReceiveMessageInput) (output []types.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	q.updateUnsafe(now)

	visibilityTimeout := q.VisibilityTimeout
	if input.VisibilityTimeout > 0 {
		visibilityTimeout = time.Duration(input.VisibilityTimeout) * time.Second
	}
	maxNumberOfMessages := coalesceZero(int(input.MaxNumberOfMessages), 1)
	for len(output) < maxNumberOfMessages && len(q.ready) > 0 {
		msg := q.ready[0]
		q.ready[0] = nil
		q.ready = q.ready[1:]

		receiptHandle := ReceiptHandle{
			ID:           uuid.V4(),
			QueueARN:     q.ARN,
			MessageID:    msg.MessageID,
			LastReceived: now,
		}.String()
		msg.MarkReceived(now, visibilityTimeout, receiptHandle)
		q.inflight[receiptHandle] = msg

		q.stats.TotalMessagesReceived++
		q.stats.NumMessagesReady--
		q.stats.NumMessagesInflight++
		output = append(output, msg.ForReceiveMessageOutput(input))
	}
	return
}

// Delete removes the in flight message that owns a receipt handle.
//
// Handles from earlier receives of a message that has since become
// visible again are no longer valid.
func (q *Queue) Delete(receiptHandle string) (ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.updateUnsafe(q.clock.Now())
	_, ok = q.inflight[receiptHandle]
	if !ok {
		return
	}
	delete(q.inflight, receiptHandle)
	q.stats.TotalMessagesDeleted++
	q.stats.NumMessagesInflight--
	q.stats.NumMessages--
	return
}

// Purge drops every message in the queue.
func (q *Queue) Purge() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ready = nil
	clear(q.delayed)
	clear(q.inflight)

	q.stats.TotalMessagesPurged += uint64(q.stats.NumMessages)
	q.stats.NumMessages = 0
	q.stats.NumMessagesReady = 0
	q.stats.NumMessagesDelayed = 0
	q.stats.NumMessagesInflight = 0
}

// Stats returns a snapshot of the queue statistics.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updateUnsafe(q.clock.Now())
	return q.stats
}

// GetQueueAttributes gets queue attribute values for a given list of queue attribute names.
func (q *Queue) GetQueueAttributes(attributeNames ...types.QueueAttributeName) map[string]string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updateUnsafe(q.clock.Now())

	var names []types.QueueAttributeName
	for _, name := range attributeNames {
		if name == types.QueueAttributeNameAll {
			names = append(names, name.Values()...)
			continue
		}
		names = append(names, name)
	}
	output := make(map[string]string)
	for _, name := range names {
		if value := q.getQueueAttributeUnsafe(name); value != "" {
			output[string(name)] = value
		}
	}
	return output
}

//
// internal methods
//

// updateUnsafe moves delayed and timed out in flight messages to ready
// and drops expired messages. It requires the queue mutex.
func (q *Queue) updateUnsafe(now time.Time) {
	var becameReady []*MessageState
	for id, msg := range q.delayed {
		if msg.IsExpired(now) {
			delete(q.delayed, id)
			q.stats.NumMessagesDelayed--
			q.expireUnsafe()
			continue
		}
		if msg.IsDelayed(now) {
			continue
		}
		delete(q.delayed, id)
		q.stats.NumMessagesDelayed--
		becameReady = append(becameReady, msg)
	}
	for receiptHandle, msg := range q.inflight {
		if msg.IsExpired(now) {
			delete(q.inflight, receiptHandle)
			q.stats.NumMessagesInflight--
			q.expireUnsafe()
			continue
		}
		if !msg.IsVisible(now) {
			continue
		}
		delete(q.inflight, receiptHandle)
		msg.ReceiptHandle = ""
		q.stats.NumMessagesInflight--
		becameReady = append(becameReady, msg)
	}
	slices.SortFunc(becameReady, func(a, b *MessageState) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	q.stats.NumMessagesReady += int64(len(becameReady))
	q.ready = append(q.ready, becameReady...)

	live := q.ready[:0]
	for _, msg := range q.ready {
		if msg.IsExpired(now) {
			q.stats.NumMessagesReady--
			q.expireUnsafe()
			continue
		}
		live = append(live, msg)
	}
	clear(q.ready[len(live):])
	q.ready = live
}

func (q *Queue) expireUnsafe() {
	q.stats.NumMessages--
	q.stats.TotalMessagesExpired++
}

func (q *Queue) getQueueAttributeUnsafe(attributeName types.QueueAttributeName) string {
	switch attributeName {
	case types.QueueAttributeNameApproximateNumberOfMessages:
		return strconv.FormatInt(q.stats.NumMessagesReady, 10)
	case types.QueueAttributeNameApproximateNumberOfMessagesNotVisible:
		return strconv.FormatInt(q.stats.NumMessagesInflight, 10)
	case types.QueueAttributeNameApproximateNumberOfMessagesDelayed:
		return strconv.FormatInt(q.stats.NumMessagesDelayed, 10)
	case types.QueueAttributeNameCreatedTimestamp, types.QueueAttributeNameLastModifiedTimestamp:
		return strconv.FormatInt(q.created.Unix(), 10)
	case types.QueueAttributeNameDelaySeconds:
		return strconv.Itoa(int(q.Delay / time.Second))
	case types.QueueAttributeNameMaximumMessageSize:
		return strconv.Itoa(q.MaximumMessageSizeBytes)
	case types.QueueAttributeNameMessageRetentionPeriod:
		return strconv.Itoa(int(q.MessageRetentionPeriod / time.Second))
	case types.QueueAttributeNameQueueArn:
		return q.ARN
	case types.QueueAttributeNameReceiveMessageWaitTimeSeconds:
		return strconv.Itoa(int(q.ReceiveMessageWaitTime / time.Second))
	case types.QueueAttributeNameVisibilityTimeout:
		return strconv.Itoa(int(q.VisibilityTimeout / time.Second))
	default:
		return ""
	}
}

func (q *Queue) applyQueueAttributes(attributes map[string]string) *Error {
	delay, ok, err := readAttributeDurationSeconds(attributes, types.QueueAttributeNameDelaySeconds)
	if err != nil {
		return err
	}
	if ok {
		if err = validateDelay(delay); err != nil {
			return err
		}
		q.Delay = delay
	}

	maximumMessageSizeBytes, ok, err := readAttributeInt(attributes, types.QueueAttributeNameMaximumMessageSize)
	if err != nil {
		return err
	}
	if ok {
		if err = validateMaximumMessageSizeBytes(maximumMessageSizeBytes); err != nil {
			return err
		}
		q.MaximumMessageSizeBytes = maximumMessageSizeBytes
	}

	messageRetentionPeriod, ok, err := readAttributeDurationSeconds(attributes, types.QueueAttributeNameMessageRetentionPeriod)
	if err != nil {
		return err
	}
	if ok {
		if err = validateMessageRetentionPeriod(messageRetentionPeriod); err != nil {
			return err
		}
		q.MessageRetentionPeriod = messageRetentionPeriod
	}

	receiveMessageWaitTime, ok, err := readAttributeDurationSeconds(attributes, types.QueueAttributeNameReceiveMessageWaitTimeSeconds)
	if err != nil {
		return err
	}
	if ok {
		if err = validateReceiveMessageWaitTime(receiveMessageWaitTime); err != nil {
			return err
		}
		q.ReceiveMessageWaitTime = receiveMessageWaitTime
	}

	visibilityTimeout, ok, err := readAttributeDurationSeconds(attributes, types.QueueAttributeNameVisibilityTimeout)
	if err != nil {
		return err
	}
	if ok {
		if err = validateVisibilityTimeout(visibilityTimeout); err != nil {
			return err
		}
		q.VisibilityTimeout = visibilityTimeout
	}
	return nil
}
