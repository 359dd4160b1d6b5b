package sqsfake

import "time"

const (
	DefaultBaseURL   = "http://sqsfake.local"
	DefaultRegion    = "us-east-1"
	DefaultAccountID = "000000000000"

	DefaultQueueMaximumMessageSizeBytes = 256 * 1024         // 256KiB
	DefaultQueueMessageRetentionPeriod  = 4 * 24 * time.Hour // 4 days
	DefaultQueueVisibilityTimeout       = 30 * time.Second

	// DefaultQueueReceiveMessageWaitTime matches sqs, where a queue
	// without the attribute short polls.
	DefaultQueueReceiveMessageWaitTime = 0

	// longPollInterval is how often a waiting receive re-checks the queue.
	longPollInterval = 100 * time.Millisecond
)

// Method names
const (
	MethodCreateQueue        = "AmazonSQS.CreateQueue"
	MethodGetQueueURL        = "AmazonSQS.GetQueueUrl"
	MethodListQueues         = "AmazonSQS.ListQueues"
	MethodGetQueueAttributes = "AmazonSQS.GetQueueAttributes"
	MethodPurgeQueue         = "AmazonSQS.PurgeQueue"
	MethodDeleteQueue        = "AmazonSQS.DeleteQueue"
	MethodSendMessage        = "AmazonSQS.SendMessage"
	MethodReceiveMessage     = "AmazonSQS.ReceiveMessage"
	MethodDeleteMessage      = "AmazonSQS.DeleteMessage"
)

const (
	MessageAttributeApproximateReceiveCount          = "ApproximateReceiveCount"
	MessageAttributeApproximateFirstReceiveTimestamp = "ApproximateFirstReceiveTimestamp"
	MessageAttributeSentTimestamp                    = "SentTimestamp"
	MessageAttributeSenderID                         = "SenderId"
)
