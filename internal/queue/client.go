package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

const (
	DefaultEndpoint            = "http://localhost:4566"
	DefaultRegion              = "us-east-1"
	DefaultMaxNumberOfMessages = 10
	DefaultWaitTimeSeconds     = 10
	DefaultVisibilityTimeout   = 60
	DefaultDelaySeconds        = 0

	// mockEndpoint is only used to satisfy endpoint resolution; requests
	// go through the in process transport regardless of host.
	mockEndpoint = "http://sqsfake.local"
)

// ErrQueueURLUnresolved is returned by operations that run before [Client.ResolveQueueURL].
var ErrQueueURLUnresolved = errors.New("queue; queue url has not been resolved")

// API is the subset of the SQS client used by [Client].
type API interface {
	CreateQueue(context.Context, *sqs.CreateQueueInput, ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueUrl(context.Context, *sqs.GetQueueUrlInput, ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	PurgeQueue(context.Context, *sqs.PurgeQueueInput, ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error)
}

var _ API = (*sqs.Client)(nil)

// Options configure a [Client].
//
// The pointer fields fall back to the Default constants when nil.
type Options struct {
	// MockAWS selects the simulated backend reached through HTTPClient.
	MockAWS    bool
	Endpoint   string
	Region     string
	HTTPClient *http.Client
	Logger     *slog.Logger

	MaxNumberOfMessages *int32
	WaitTimeSeconds     *int32
	VisibilityTimeout   *int32
	DelaySeconds        *int32
}

func (o Options) regionOrDefault() string {
	if o.Region != "" {
		return o.Region
	}
	return DefaultRegion
}

func (o Options) endpointOrDefault() string {
	if o.Endpoint != "" {
		return o.Endpoint
	}
	return DefaultEndpoint
}

func (o Options) loggerOrDefault() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func int32OrDefault(value *int32, defaultValue int32) int32 {
	if value != nil {
		return *value
	}
	return defaultValue
}

// NewClient builds the SQS client for the selected backend.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	creds := credentials.NewStaticCredentialsProvider("test", "test", "")
	if opts.MockAWS {
		if opts.HTTPClient == nil {
			return nil, errors.New("queue; an http client for the simulated backend is required when mocking aws")
		}
		api := sqs.New(sqs.Options{
			Region:       opts.regionOrDefault(),
			BaseEndpoint: aws.String(mockEndpoint),
			Credentials:  creds,
			HTTPClient:   opts.HTTPClient,
		})
		return NewClientFromAPI(api, opts), nil
	}
	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(opts.regionOrDefault()),
		config.WithCredentialsProvider(creds),
	}
	if opts.HTTPClient != nil {
		loadOptions = append(loadOptions, config.WithHTTPClient(opts.HTTPClient))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("queue; unable to load aws config: %w", err)
	}
	api := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = aws.String(opts.endpointOrDefault())
	})
	return NewClientFromAPI(api, opts), nil
}

// NewClientFromAPI wraps an existing API implementation.
func NewClientFromAPI(api API, opts Options) *Client {
	return &Client{
		api:  api,
		opts: opts,
		log:  opts.loggerOrDefault(),
	}
}

// Client performs queue operations against a single resolved queue.
type Client struct {
	api  API
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	queueURL string
}

// API returns the underlying SQS API.
func (c *Client) API() API { return c.api }

// MockAWS reports whether the client targets the simulated backend.
func (c *Client) MockAWS() bool { return c.opts.MockAWS }

// QueueURL returns the resolved queue url, empty before [Client.ResolveQueueURL].
func (c *Client) QueueURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueURL
}

// CreateQueue creates the named queue with a zero delay and the configured visibility timeout.
//
// Creating a queue that already exists with the same attributes succeeds.
func (c *Client) CreateQueue(ctx context.Context, name string) error {
	_, err := c.api.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]string{
			string(types.QueueAttributeNameDelaySeconds):      strconv.Itoa(int(int32OrDefault(c.opts.DelaySeconds, DefaultDelaySeconds))),
			string(types.QueueAttributeNameVisibilityTimeout): strconv.Itoa(int(int32OrDefault(c.opts.VisibilityTimeout, DefaultVisibilityTimeout))),
		},
	})
	if err != nil {
		c.log.Error("queue; create queue failed", slog.String("queue_name", name), slog.Any("err", err))
		return err
	}
	c.log.Info("queue created", slog.String("queue_name", name))
	return nil
}

// ResolveQueueURL looks up the queue url by name and caches it for later operations.
func (c *Client) ResolveQueueURL(ctx context.Context, name string) (string, error) {
	res, err := c.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		c.log.Error("queue; get queue url failed", slog.String("queue_name", name), slog.Any("err", err))
		return "", err
	}
	queueURL := aws.ToString(res.QueueUrl)
	c.mu.Lock()
	c.queueURL = queueURL
	c.mu.Unlock()
	c.log.Info("resolved queue url", slog.String("queue_name", name), slog.String("queue_url", queueURL))
	return queueURL, nil
}

// Send serializes the payload as JSON and sends it, returning the message id.
func (c *Client) Send(ctx context.Context, payload any) (string, error) {
	queueURL, err := c.requireQueueURL()
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("queue; unable to marshal message body", slog.Any("err", err))
		return "", fmt.Errorf("queue; unable to marshal message body: %w", err)
	}
	res, err := c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		c.log.Error("queue; send message failed", slog.String("queue_url", queueURL), slog.Any("err", err))
		return "", err
	}
	c.log.Info("message sent", slog.String("message_id", aws.ToString(res.MessageId)))
	return aws.ToString(res.MessageId), nil
}

// Receive makes a single long polling receive call and returns whatever messages are available.
func (c *Client) Receive(ctx context.Context) ([]types.Message, error) {
	queueURL, err := c.requireQueueURL()
	if err != nil {
		return nil, err
	}
	res, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: int32OrDefault(c.opts.MaxNumberOfMessages, DefaultMaxNumberOfMessages),
		WaitTimeSeconds:     int32OrDefault(c.opts.WaitTimeSeconds, DefaultWaitTimeSeconds),
	})
	if err != nil {
		c.log.Error("queue; receive message failed", slog.String("queue_url", queueURL), slog.Any("err", err))
		return nil, err
	}
	c.log.Info("messages received", slog.Int("count", len(res.Messages)))
	return res.Messages, nil
}

// Delete deletes a message by its receipt handle.
func (c *Client) Delete(ctx context.Context, receiptHandle string) error {
	queueURL, err := c.requireQueueURL()
	if err != nil {
		return err
	}
	_, err = c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		c.log.Error("queue; delete message failed", slog.String("queue_url", queueURL), slog.Any("err", err))
		return err
	}
	c.log.Info("message deleted")
	return nil
}

// Purge removes every message in the queue.
func (c *Client) Purge(ctx context.Context) error {
	queueURL, err := c.requireQueueURL()
	if err != nil {
		return err
	}
	_, err = c.api.PurgeQueue(ctx, &sqs.PurgeQueueInput{
		QueueUrl: aws.String(queueURL),
	})
	if err != nil {
		c.log.Error("queue; purge queue failed", slog.String("queue_url", queueURL), slog.Any("err", err))
		return err
	}
	c.log.Info("queue purged", slog.String("queue_url", queueURL))
	return nil
}

func (c *Client) requireQueueURL() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queueURL == "" {
		return "", ErrQueueURLUnresolved
	}
	return c.queueURL, nil
}

// IsNotFound reports if the error is the backend's queue does not exist fault.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var typed *types.QueueDoesNotExist
	if errors.As(err, &typed) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "QueueDoesNotExist", "AWS.SimpleQueueService.NonExistentQueue":
			return true
		}
	}
	return false
}
