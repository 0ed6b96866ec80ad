package oktahttp

import (
	"bytes"
	"io"
	"mime"
)

// Response is an immutable-from-caller view of a completed HTTP exchange.
// Body is fully buffered (spec §8 invariant 5: readable twice identically);
// NewBodyReader returns a fresh reader over the same bytes every time.
type Response struct {
	Status        int
	Headers       *Headers
	ContentLength int64 // pre-decode length reported by the transport, or -1 if unknown
	body          []byte
}

// NewResponse constructs a Response with a fully-buffered body.
func NewResponse(status int, headers *Headers, contentLength int64, body []byte) *Response {
	return &Response{
		Status:        status,
		Headers:       headers,
		ContentLength: contentLength,
		body:          body,
	}
}

// Body returns the complete response body bytes.
func (r *Response) Body() []byte {
	return r.body
}

// NewBodyReader returns a rewindable reader over the response body. Callers
// may call this repeatedly; each call starts from byte 0.
func (r *Response) NewBodyReader() io.ReadSeeker {
	return bytes.NewReader(r.body)
}

// MediaType returns the parsed Content-Type header (the media type alone,
// e.g. "application/json", without parameters). Returns "" on a malformed
// or absent header.
func (r *Response) MediaType() string {
	ct := r.Headers.ContentType()
	if ct == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}

	return mt
}

// RequestID returns the correlation ID the server assigned to this
// response's originating attempt.
func (r *Response) RequestID() string {
	return r.Headers.RequestID()
}
