package httputil

// Header names in canonical form.
const (
	HeaderAuthorization   = "Authorization"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderUserAgent       = "User-Agent"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXRealIP         = "X-Real-IP"

	// HeaderAmzTarget names the rpc method of an aws json protocol request.
	HeaderAmzTarget = "X-Amz-Target"
	// HeaderAmznRequestID reports a request id back to aws clients.
	HeaderAmznRequestID = "X-Amzn-Requestid"
)

const (
	// ContentTypeApplicationJSON is a content type for JSON responses.
	// We specify charset=utf-8 so that clients know to use the UTF-8 string encoding.
	ContentTypeApplicationJSON = "application/json; charset=utf-8"

	// ContentTypeText is a content type for text responses.
	// We specify charset=utf-8 so that clients know to use the UTF-8 string encoding.
	ContentTypeText = "text/plain; charset=utf-8"

	// ContentTypeAmzJSON is the amz-json-1.0 content type header value.
	ContentTypeAmzJSON = "application/x-amz-json-1.0"
)
