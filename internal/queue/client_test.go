package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carqueue/carqueue/internal/sqsfake"
)

func newTestClient(t *testing.T) (*sqsfake.Server, *Client) {
	t.Helper()
	server := sqsfake.NewServer(sqsfake.OptClock(clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	t.Cleanup(server.Close)
	client, err := NewClient(t.Context(), Options{
		MockAWS:         true,
		HTTPClient:      server.Client(),
		WaitTimeSeconds: aws.Int32(0),
	})
	require.NoError(t, err)
	return server, client
}

func Test_NewClient_mockRequiresHTTPClient(t *testing.T) {
	_, err := NewClient(t.Context(), Options{MockAWS: true})
	require.Error(t, err)
}

func Test_Client_roundTrip(t *testing.T) {
	server, client := newTestClient(t)
	ctx := t.Context()

	require.NoError(t, client.CreateQueue(ctx, "cars"))
	// idempotent with the same attributes
	require.NoError(t, client.CreateQueue(ctx, "cars"))

	queueURL, err := client.ResolveQueueURL(ctx, "cars")
	require.NoError(t, err)
	require.Equal(t, queueURL, client.QueueURL())
	require.True(t, client.MockAWS())

	queue, ok := server.Queues().GetQueueByName("cars")
	require.True(t, ok)
	require.Equal(t, "60", queue.Attributes[string(types.QueueAttributeNameVisibilityTimeout)])

	detail := map[string]any{"make": "Saab", "year": 1994}
	messageID, err := client.Send(ctx, detail)
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	messages, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, messageID, aws.ToString(messages[0].MessageId))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(messages[0].Body)), &decoded))
	require.Equal(t, "Saab", decoded["make"])
	require.EqualValues(t, 1994, decoded["year"])

	require.NoError(t, client.Delete(ctx, aws.ToString(messages[0].ReceiptHandle)))
	// deleted messages are gone even once the visibility timeout passes
	server.Clock().(*clockwork.FakeClock).Advance(2 * DefaultVisibilityTimeout * time.Second)
	messages, err = client.Receive(ctx)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func Test_Client_deleteTwice(t *testing.T) {
	_, client := newTestClient(t)
	ctx := t.Context()
	require.NoError(t, client.CreateQueue(ctx, "cars"))
	_, err := client.ResolveQueueURL(ctx, "cars")
	require.NoError(t, err)

	_, err = client.Send(ctx, map[string]any{"make": "Volvo"})
	require.NoError(t, err)
	messages, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	handle := aws.ToString(messages[0].ReceiptHandle)
	require.NoError(t, client.Delete(ctx, handle))

	err = client.Delete(ctx, handle)
	var invalid *types.ReceiptHandleIsInvalid
	require.ErrorAs(t, err, &invalid)
}

func Test_Client_Purge(t *testing.T) {
	_, client := newTestClient(t)
	ctx := t.Context()
	require.NoError(t, client.CreateQueue(ctx, "cars"))
	_, err := client.ResolveQueueURL(ctx, "cars")
	require.NoError(t, err)
	for range 3 {
		_, err = client.Send(ctx, map[string]any{"make": "Kia"})
		require.NoError(t, err)
	}
	require.NoError(t, client.Purge(ctx))
	messages, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func Test_Client_ResolveQueueURL_notFound(t *testing.T) {
	_, client := newTestClient(t)

	_, err := client.ResolveQueueURL(t.Context(), "not-cars")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.Empty(t, client.QueueURL())
}

func Test_Client_unresolved(t *testing.T) {
	_, client := newTestClient(t)
	ctx := t.Context()

	_, err := client.Send(ctx, map[string]any{})
	require.ErrorIs(t, err, ErrQueueURLUnresolved)
	_, err = client.Receive(ctx)
	require.ErrorIs(t, err, ErrQueueURLUnresolved)
	require.ErrorIs(t, client.Delete(ctx, "handle"), ErrQueueURLUnresolved)
	require.ErrorIs(t, client.Purge(ctx), ErrQueueURLUnresolved)
}

func Test_Client_network(t *testing.T) {
	server := sqsfake.NewServer()
	t.Cleanup(server.Close)
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	client, err := NewClient(t.Context(), Options{
		Endpoint:        httpServer.URL,
		WaitTimeSeconds: aws.Int32(0),
	})
	require.NoError(t, err)
	require.False(t, client.MockAWS())

	ctx := t.Context()
	require.NoError(t, client.CreateQueue(ctx, "cars"))
	_, err = client.ResolveQueueURL(ctx, "cars")
	require.NoError(t, err)
	messageID, err := client.Send(ctx, map[string]any{"make": "Lada"})
	require.NoError(t, err)
	messages, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, messageID, aws.ToString(messages[0].MessageId))
}

type failingAPI struct {
	API
	err error
}

func (f failingAPI) GetQueueUrl(context.Context, *sqs.GetQueueUrlInput, ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("http://sqsfake.local/000000000000/cars")}, nil
}

func (f failingAPI) DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return nil, f.err
}

func (f failingAPI) CreateQueue(context.Context, *sqs.CreateQueueInput, ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	return nil, f.err
}

func Test_Client_errorsLoggedAndReturned(t *testing.T) {
	buf := new(bytes.Buffer)
	sentinel := errors.New("backend exploded")
	client := NewClientFromAPI(failingAPI{err: sentinel}, Options{
		Logger: slog.New(slog.NewTextHandler(buf, nil)),
	})
	ctx := t.Context()

	err := client.CreateQueue(ctx, "cars")
	require.Equal(t, sentinel, err)
	assert.Contains(t, buf.String(), "create queue failed")
	assert.Contains(t, buf.String(), "queue_name=cars")

	_, err = client.ResolveQueueURL(ctx, "cars")
	require.NoError(t, err)
	err = client.Delete(ctx, "handle")
	require.Equal(t, sentinel, err)
	assert.Contains(t, buf.String(), "delete message failed")
	assert.Contains(t, buf.String(), "backend exploded")
}

func Test_IsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("nope")))
	assert.True(t, IsNotFound(&types.QueueDoesNotExist{}))
	assert.True(t, IsNotFound(&smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue"}))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "QueueNameExists"}))
}
