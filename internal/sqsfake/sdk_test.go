package sqsfake

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newTestSDKClient(t *testing.T) (*Server, *sqs.Client) {
	t.Helper()
	server := NewServer(OptClock(clockwork.NewFakeClockAt(testEpoch)))
	t.Cleanup(server.Close)
	client := sqs.New(sqs.Options{
		Region:       "us-west-2",
		BaseEndpoint: aws.String(DefaultBaseURL),
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		HTTPClient:   server.Client(),
	})
	return server, client
}

func Test_Server_sdk_roundTrip(t *testing.T) {
	_, client := newTestSDKClient(t)
	ctx := t.Context()

	created, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(testQueueName),
		Attributes: map[string]string{
			string(types.QueueAttributeNameDelaySeconds):      "0",
			string(types.QueueAttributeNameVisibilityTimeout): "60",
		},
	})
	require.NoError(t, err)
	resolved, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(testQueueName)})
	require.NoError(t, err)
	require.Equal(t, *created.QueueUrl, *resolved.QueueUrl)

	// the sdk verifies the body checksum of both of these
	sent, err := client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    resolved.QueueUrl,
		MessageBody: aws.String(`{"make":"Saab"}`),
	})
	require.NoError(t, err)
	received, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            resolved.QueueUrl,
		MaxNumberOfMessages: 10,
	})
	require.NoError(t, err)
	require.Len(t, received.Messages, 1)
	require.Equal(t, *sent.MessageId, *received.Messages[0].MessageId)

	_, err = client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      resolved.QueueUrl,
		ReceiptHandle: received.Messages[0].ReceiptHandle,
	})
	require.NoError(t, err)
}

func Test_Server_sdk_errors(t *testing.T) {
	_, client := newTestSDKClient(t)
	ctx := t.Context()

	_, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String("missing")})
	var notFound *types.QueueDoesNotExist
	require.ErrorAs(t, err, &notFound)

	created, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(testQueueName)})
	require.NoError(t, err)

	_, err = client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  aws.String(testQueueName),
		Attributes: map[string]string{string(types.QueueAttributeNameVisibilityTimeout): "5"},
	})
	var exists *types.QueueNameExists
	require.ErrorAs(t, err, &exists)

	_, err = client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      created.QueueUrl,
		ReceiptHandle: aws.String("bogus"),
	})
	var invalidHandle *types.ReceiptHandleIsInvalid
	require.ErrorAs(t, err, &invalidHandle)

	var apiErr smithy.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "ReceiptHandleIsInvalid", apiErr.ErrorCode())
}
