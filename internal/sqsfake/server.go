package sqsfake

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"

	"github.com/carqueue/carqueue/internal/httputil"
	"github.com/carqueue/carqueue/internal/uuid"
)

// Option mutates a server.
type Option func(*Server)

// OptClock sets the clock that drives delays, visibility and long polls.
func OptClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// OptBaseURL sets the scheme and host queue urls are formed with.
func OptBaseURL(baseURL string) Option {
	return func(s *Server) { s.location.BaseURL = strings.TrimSuffix(baseURL, "/") }
}

// OptRegion sets the region used in queue arns when requests do not carry one.
func OptRegion(region string) Option {
	return func(s *Server) { s.location.Region = region }
}

// OptLogger sets the logger for the server and its in process client.
func OptLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer returns a new server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		queues: NewQueues(),
		clock:  clockwork.NewRealClock(),
		location: Location{
			BaseURL:   DefaultBaseURL,
			Region:    DefaultRegion,
			AccountID: DefaultAccountID,
		},
		log:    slog.Default(),
		router: httprouter.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerAdmin()
	return s
}

var _ http.Handler = (*Server)(nil)

// Server implements the sqs json protocol over in memory queues.
type Server struct {
	queues   *Queues
	clock    clockwork.Clock
	location Location
	log      *slog.Logger
	router   *httprouter.Router
}

// Clock returns the server's [clockwork.Clock] instance.
func (s *Server) Clock() clockwork.Clock {
	return s.clock
}

// Location returns the default location queues are created in.
func (s *Server) Location() Location {
	return s.location
}

// Queues returns the underlying queues storage.
func (s *Server) Queues() *Queues {
	return s.queues
}

// Client returns an http client that reaches the server without a listener.
func (s *Server) Client() *http.Client {
	return httputil.InProcessClient(httputil.Logged(s.log, s))
}

// Close drops every queue.
func (s *Server) Close() {
	for queue := range s.queues.EachQueue() {
		s.queues.DeleteQueue(queue.URL)
	}
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		s.router.ServeHTTP(rw, req)
		return
	}
	if req.URL.Path != "/" {
		serialize(rw, req, ErrorUnsupportedOperation().WithMessagef("Expected '/' as the request path, you used: %v", req.URL.Path))
		return
	}
	rw.Header().Set(httputil.HeaderAmznRequestID, uuid.V4().String())

	action := req.Header.Get(httputil.HeaderAmzTarget)
	switch action {
	case MethodCreateQueue:
		s.createQueue(rw, req)
	case MethodGetQueueURL:
		s.getQueueURL(rw, req)
	case MethodListQueues:
		s.listQueues(rw, req)
	case MethodGetQueueAttributes:
		s.getQueueAttributes(rw, req)
	case MethodPurgeQueue:
		s.purgeQueue(rw, req)
	case MethodDeleteQueue:
		s.deleteQueue(rw, req)
	case MethodSendMessage:
		s.sendMessage(rw, req)
	case MethodReceiveMessage:
		s.receiveMessage(rw, req)
	case MethodDeleteMessage:
		s.deleteMessage(rw, req)
	default:
		serialize(rw, req, ErrorUnsupportedOperation().WithMessagef("Unsupported operation: %q", action))
	}
}

func (s *Server) createQueue(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.CreateQueueInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err := NewQueueFromCreateQueueInput(s.clock, s.locationForRequest(req), input)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err = s.queues.AddQueue(queue)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	serialize(rw, req, &sqs.CreateQueueOutput{
		QueueUrl: aws.String(queue.URL),
	})
}

func (s *Server) getQueueURL(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.GetQueueUrlInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := requireParameter("QueueName", input.QueueName); err != nil {
		serialize(rw, req, err)
		return
	}
	queueURL, ok := s.queues.GetQueueURL(*input.QueueName)
	if !ok {
		serialize(rw, req, ErrorQueueDoesNotExist())
		return
	}
	serialize(rw, req, &sqs.GetQueueUrlOutput{
		QueueUrl: aws.String(queueURL),
	})
}

func (s *Server) listQueues(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.ListQueuesInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if input.MaxResults != nil && (*input.MaxResults < 1 || *input.MaxResults > 1000) {
		serialize(rw, req, ErrorInvalidParameterValue().WithMessage("MaxResults: must be between 1 and 1000"))
		return
	}
	maxResults := 1000
	if input.MaxResults != nil {
		maxResults = int(*input.MaxResults)
	}
	var inputNextToken nextPageToken
	if input.NextToken != nil && *input.NextToken != "" {
		inputNextToken = parseNextPageToken(*input.NextToken)
	}

	var nextToken *string
	var queueURLs []string
	var index int
	for queue := range s.queues.EachQueue() {
		if input.QueueNamePrefix != nil && !strings.HasPrefix(queue.Name, *input.QueueNamePrefix) {
			continue
		}
		index++
		if index <= inputNextToken.Offset {
			continue
		}
		queueURLs = append(queueURLs, queue.URL)
		if len(queueURLs) == maxResults {
			nextToken = aws.String(nextPageToken{Offset: index}.String())
			break
		}
	}
	serialize(rw, req, &sqs.ListQueuesOutput{
		NextToken: nextToken,
		QueueUrls: queueURLs,
	})
}

func (s *Server) getQueueAttributes(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.GetQueueAttributesInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err := s.requireQueue(input.QueueUrl)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	serialize(rw, req, &sqs.GetQueueAttributesOutput{
		Attributes: queue.GetQueueAttributes(input.AttributeNames...),
	})
}

func (s *Server) purgeQueue(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.PurgeQueueInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := requireParameter("QueueUrl", input.QueueUrl); err != nil {
		serialize(rw, req, err)
		return
	}
	if ok := s.queues.PurgeQueue(*input.QueueUrl); !ok {
		serialize(rw, req, ErrorQueueDoesNotExist())
		return
	}
	serialize(rw, req, &sqs.PurgeQueueOutput{})
}

func (s *Server) deleteQueue(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.DeleteQueueInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := requireParameter("QueueUrl", input.QueueUrl); err != nil {
		serialize(rw, req, err)
		return
	}
	if ok := s.queues.DeleteQueue(*input.QueueUrl); !ok {
		serialize(rw, req, ErrorQueueDoesNotExist())
		return
	}
	serialize(rw, req, &sqs.DeleteQueueOutput{})
}

func (s *Server) sendMessage(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.SendMessageInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err := s.requireQueue(input.QueueUrl)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := validateMessageBody(input.MessageBody, queue.MaximumMessageSizeBytes); err != nil {
		serialize(rw, req, err)
		return
	}
	msg, err := queue.NewMessageState(NewMessageFromSendMessageInput(input), input.DelaySeconds, s.locationForRequest(req).AccountID)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	queue.Push(msg)
	serialize(rw, req, &sqs.SendMessageOutput{
		MessageId:        aws.String(msg.MessageID.String()),
		MD5OfMessageBody: aws.String(msg.MD5OfBody),
	})
}

func (s *Server) receiveMessage(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.ReceiveMessageInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := validateMaxNumberOfMessages(input.MaxNumberOfMessages); err != nil {
		serialize(rw, req, err)
		return
	}
	if err := validateVisibilityTimeout(time.Duration(input.VisibilityTimeout) * time.Second); err != nil {
		serialize(rw, req, err)
		return
	}
	waitTimeout := time.Duration(input.WaitTimeSeconds) * time.Second
	if err := validateWaitTimeSeconds(waitTimeout); err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err := s.requireQueue(input.QueueUrl)
	if err != nil {
		serialize(rw, req, err)
		return
	}

	messages := queue.Receive(input)
	waitTime := coalesceZero(waitTimeout, queue.ReceiveMessageWaitTime)
	if len(messages) > 0 || waitTime == 0 {
		serialize(rw, req, &sqs.ReceiveMessageOutput{Messages: messages})
		return
	}

	ticker := s.clock.NewTicker(longPollInterval)
	defer ticker.Stop()
	waitDeadline := s.clock.NewTimer(waitTime)
	defer waitDeadline.Stop()

done:
	for {
		select {
		case <-req.Context().Done():
			break done
		case <-waitDeadline.Chan():
			break done
		case <-ticker.Chan():
			if messages = queue.Receive(input); len(messages) > 0 {
				break done
			}
		}
	}
	serialize(rw, req, &sqs.ReceiveMessageOutput{Messages: messages})
}

func (s *Server) deleteMessage(rw http.ResponseWriter, req *http.Request) {
	input, err := deserialize[sqs.DeleteMessageInput](req)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if err := requireParameter("ReceiptHandle", input.ReceiptHandle); err != nil {
		serialize(rw, req, err)
		return
	}
	queue, err := s.requireQueue(input.QueueUrl)
	if err != nil {
		serialize(rw, req, err)
		return
	}
	if ok := queue.Delete(*input.ReceiptHandle); !ok {
		serialize(rw, req, ErrorReceiptHandleIsInvalid().WithMessagef("The input receipt handle %q is not a valid receipt handle.", *input.ReceiptHandle))
		return
	}
	serialize(rw, req, &sqs.DeleteMessageOutput{})
}

func (s *Server) requireQueue(queueURL *string) (*Queue, *Error) {
	if err := requireParameter("QueueUrl", queueURL); err != nil {
		return nil, err
	}
	queue, ok := s.queues.GetQueue(*queueURL)
	if !ok {
		return nil, ErrorQueueDoesNotExist()
	}
	return queue, nil
}

// locationForRequest reads the account and region from the request
// signature's credential scope, falling back to the server defaults.
//
// Signatures are not verified.
func (s *Server) locationForRequest(req *http.Request) Location {
	location := s.location
	_, credential, ok := strings.Cut(req.Header.Get(httputil.HeaderAuthorization), "Credential=")
	if !ok {
		return location
	}
	credential, _, _ = strings.Cut(credential, ",")
	// access-key/date/region/service/aws4_request
	if parts := strings.Split(credential, "/"); len(parts) >= 3 && parts[2] != "" {
		location.Region = parts[2]
	}
	return location
}

func parseNextPageToken(token string) (output nextPageToken) {
	d, _ := hex.DecodeString(token)
	_ = json.Unmarshal(d, &output)
	return
}

type nextPageToken struct {
	Offset int
}

func (npt nextPageToken) String() string {
	return hex.EncodeToString([]byte(marshalJSON(npt)))
}

func deserialize[V any](req *http.Request) (*V, *Error) {
	var value V
	if req.Body == nil {
		return &value, nil
	}
	defer req.Body.Close()
	if err := json.NewDecoder(req.Body).Decode(&value); err != nil {
		return nil, ErrorSerialization().WithMessage(fmt.Sprintf("Deserializing input failed: %v", err))
	}
	return &value, nil
}

func serialize(rw http.ResponseWriter, _ *http.Request, res any) {
	rw.Header().Set(httputil.HeaderContentType, httputil.ContentTypeAmzJSON)
	if commonError, ok := res.(*Error); ok {
		rw.WriteHeader(commonError.StatusCode)
	} else {
		rw.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(rw).Encode(res)
}
