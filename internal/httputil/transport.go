package httputil

import (
	"net/http"
	"net/http/httptest"
)

// HandlerTransport is an [http.RoundTripper] that serves every request
// with a handler in the same process, without a listener.
type HandlerTransport struct {
	Handler http.Handler
}

// RoundTrip implements [http.RoundTripper].
func (t HandlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	recorder := httptest.NewRecorder()
	t.Handler.ServeHTTP(recorder, req)
	res := recorder.Result()
	res.Request = req
	return res, nil
}

// InProcessClient returns an [http.Client] that dispatches to the handler directly.
func InProcessClient(h http.Handler) *http.Client {
	return &http.Client{Transport: HandlerTransport{Handler: h}}
}
