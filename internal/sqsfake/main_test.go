package sqsfake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/carqueue/carqueue/internal/httputil"
)

const (
	testQueueName           = "cars"
	testQueueURL            = "http://sqsfake.local/000000000000/cars"
	testAuthorizationHeader = "AWS4-HMAC-SHA256 Credential=test/20250522/us-west-2/sqs/aws4_request, SignedHeaders=content-type;host;x-amz-date;x-amz-target, Signature=DEADBEEF"
)

var testEpoch = time.Date(2025, time.May, 22, 12, 0, 0, 0, time.UTC)

func startTestServer(t *testing.T) (*Server, *clockwork.FakeClock, *httptest.Server) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testEpoch)
	server := NewServer(OptClock(clock))
	svr := httptest.NewServer(httputil.Logged(nil, server))
	t.Cleanup(server.Close)
	t.Cleanup(svr.Close)
	return server, clock, svr
}

func startTestServerWithQueue(t *testing.T) (*Server, *clockwork.FakeClock, *httptest.Server) {
	t.Helper()
	server, clock, svr := startTestServer(t)
	res := testHelperCreateQueue(t, svr, &sqs.CreateQueueInput{
		QueueName: aws.String(testQueueName),
		Attributes: map[string]string{
			"DelaySeconds":      "0",
			"VisibilityTimeout": "60",
		},
	})
	require.Equal(t, testQueueURL, *res.QueueUrl)
	return server, clock, svr
}

func testHelperCreateQueue(t *testing.T, testServer *httptest.Server, input *sqs.CreateQueueInput) *sqs.CreateQueueOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.CreateQueueInput, sqs.CreateQueueOutput](t, testServer, MethodCreateQueue, input)
}

func testHelperGetQueueURL(t *testing.T, testServer *httptest.Server, input *sqs.GetQueueUrlInput) *sqs.GetQueueUrlOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.GetQueueUrlInput, sqs.GetQueueUrlOutput](t, testServer, MethodGetQueueURL, input)
}

func testHelperListQueues(t *testing.T, testServer *httptest.Server, input *sqs.ListQueuesInput) *sqs.ListQueuesOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.ListQueuesInput, sqs.ListQueuesOutput](t, testServer, MethodListQueues, input)
}

func testHelperGetQueueAttributes(t *testing.T, testServer *httptest.Server, input *sqs.GetQueueAttributesInput) *sqs.GetQueueAttributesOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.GetQueueAttributesInput, sqs.GetQueueAttributesOutput](t, testServer, MethodGetQueueAttributes, input)
}

func testHelperSendMessage(t *testing.T, testServer *httptest.Server, input *sqs.SendMessageInput) *sqs.SendMessageOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.SendMessageInput, sqs.SendMessageOutput](t, testServer, MethodSendMessage, input)
}

func testHelperReceiveMessages(t *testing.T, testServer *httptest.Server, input *sqs.ReceiveMessageInput) *sqs.ReceiveMessageOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.ReceiveMessageInput, sqs.ReceiveMessageOutput](t, testServer, MethodReceiveMessage, input)
}

func testHelperDeleteMessage(t *testing.T, testServer *httptest.Server, input *sqs.DeleteMessageInput) *sqs.DeleteMessageOutput {
	t.Helper()
	return testHelperDoClientMethod[sqs.DeleteMessageInput, sqs.DeleteMessageOutput](t, testServer, MethodDeleteMessage, input)
}

func testHelperDoClientMethod[Input, Output any](t *testing.T, testServer *httptest.Server, method string, input *Input) *Output {
	t.Helper()
	res := testHelperDo(t, testServer, method, input)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var responseErr Error
		_ = json.NewDecoder(res.Body).Decode(&responseErr)
		require.Equal(t, http.StatusOK, res.StatusCode, fmt.Sprintf("%s %s", responseErr.Type, responseErr.Message))
	}

	var output Output
	err := json.NewDecoder(res.Body).Decode(&output)
	require.NoError(t, err)
	return &output
}

func testHelperDoClientMethodForError[Input any](t *testing.T, testServer *httptest.Server, method string, input *Input) *Error {
	t.Helper()
	res := testHelperDo(t, testServer, method, input)
	defer res.Body.Close()

	bodyData, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NotEqual(t, http.StatusOK, res.StatusCode, string(bodyData))

	var output Error
	err = json.Unmarshal(bodyData, &output)
	require.NoError(t, err)
	output.StatusCode = res.StatusCode
	return &output
}

func testHelperDo(t *testing.T, testServer *httptest.Server, method string, input any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, testServer.URL, bytes.NewBufferString(marshalJSON(input)))
	require.NoError(t, err)
	req.Header.Set(httputil.HeaderAuthorization, testAuthorizationHeader)
	req.Header.Set(httputil.HeaderContentType, httputil.ContentTypeAmzJSON)
	req.Header.Set(httputil.HeaderAmzTarget, method)
	res, err := testServer.Client().Do(req)
	require.NoError(t, err)
	return res
}
