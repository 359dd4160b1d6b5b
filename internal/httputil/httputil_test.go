package httputil

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GetRemoteAddr(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", GetRemoteAddr(req))

	req.Header.Set(HeaderXRealIP, "10.0.0.2")
	require.Equal(t, "10.0.0.2", GetRemoteAddr(req))

	req.Header.Set(HeaderXForwardedFor, "10.0.0.3, 10.0.0.4")
	require.Equal(t, "10.0.0.4", GetRemoteAddr(req))

	require.Empty(t, GetRemoteAddr(nil))
}

func Test_InProcessClient(t *testing.T) {
	handler := http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		rw.Header().Set(HeaderContentType, ContentTypeText)
		rw.WriteHeader(http.StatusAccepted)
		_, _ = rw.Write(bytes.ToUpper(body))
	})
	client := InProcessClient(handler)
	res, err := client.Post("http://in-process.local/", ContentTypeText, strings.NewReader("hello"))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusAccepted, res.StatusCode)
	require.Equal(t, ContentTypeText, res.Header.Get(HeaderContentType))
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "HELLO", string(body))
}

func Test_Logged(t *testing.T) {
	buf := new(bytes.Buffer)
	log := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := Logged(log, http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	}))
	req, _ := http.NewRequest(http.MethodPost, "http://in-process.local/", nil)
	req.Header.Set(HeaderAmzTarget, "AmazonSQS.ListQueues")
	res, err := InProcessClient(handler).Do(req)
	require.NoError(t, err)
	res.Body.Close()

	require.Contains(t, buf.String(), `"msg":"http-request"`)
	require.Contains(t, buf.String(), `"status_code":200`)
	require.Contains(t, buf.String(), `"method":"AmazonSQS.ListQueues"`)
}
