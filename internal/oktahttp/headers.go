package oktahttp

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RequestIDHeader is the Okta correlation-ID header echoed on retries.
const RequestIDHeader = "X-Okta-Request-Id"

// RetryForHeader carries the original request's correlation ID on a retry.
const RetryForHeader = "X-Okta-Retry-For"

// RetryCountHeader carries the 1-based attempt number on a retry.
const RetryCountHeader = "X-Okta-Retry-Count"

// foldCase is used instead of strings.ToLower for header-key folding.
// ASCII header names never hit the cases it differs on (e.g. Turkish
// dotless-i), but this keeps folding locale-correct if a caller ever
// feeds a non-ASCII key through a misbehaving collaborator.
var foldCase = cases.Fold()

// Headers is a case-insensitive, multi-valued HTTP header collection.
// Keys are stored folded; original casing is not preserved, matching the
// wire behavior of most HTTP stacks that canonicalize on the way out.
type Headers struct {
	values map[string][]string
}

// NewHeaders returns an empty Headers collection.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string][]string)}
}

func foldKey(key string) string {
	return foldCase.String(strings.TrimSpace(key))
}

// Set replaces all values for key.
func (h *Headers) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}

	h.values[foldKey(key)] = []string{value}
}

// Add appends a value for key, preserving any existing values.
func (h *Headers) Add(key, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}

	k := foldKey(key)
	h.values[k] = append(h.values[k], value)
}

// Get returns the first value for key, or "" if absent.
func (h *Headers) Get(key string) string {
	vals := h.Values(key)
	if len(vals) == 0 {
		return ""
	}

	return vals[0]
}

// Values returns all values for key, or nil if absent.
func (h *Headers) Values(key string) []string {
	if h == nil || h.values == nil {
		return nil
	}

	return h.values[foldKey(key)]
}

// keys returns the folded header names present in h, in no particular
// order. Used internally to iterate all headers when building a wire
// request.
func (h *Headers) keys() []string {
	if h == nil {
		return nil
	}

	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}

	return keys
}

// Del removes all values for key.
func (h *Headers) Del(key string) {
	if h.values == nil {
		return
	}

	delete(h.values, foldKey(key))
}

// Clone returns a deep copy, used to snapshot/restore request headers
// across retry attempts (spec §3 invariant: no leakage between attempts).
func (h *Headers) Clone() *Headers {
	clone := NewHeaders()

	if h == nil {
		return clone
	}

	for k, vals := range h.values {
		clone.values[k] = append([]string(nil), vals...)
	}

	return clone
}

// ReplaceWith overwrites h's contents with a clone of other, in place.
// Used at the start of each retry attempt to restore the original headers.
func (h *Headers) ReplaceWith(other *Headers) {
	h.values = other.Clone().values
}

// FromHTTPHeader builds a Headers collection from a net/http.Header.
func FromHTTPHeader(src http.Header) *Headers {
	h := NewHeaders()
	for k, vals := range src {
		for _, v := range vals {
			h.Add(k, v)
		}
	}

	return h
}

// Date returns the parsed Date header, or the zero Time if absent or
// unparseable.
func (h *Headers) Date() time.Time {
	raw := h.Get("Date")
	if raw == "" {
		return time.Time{}
	}

	t, err := http.ParseTime(raw)
	if err != nil {
		return time.Time{}
	}

	return t
}

// ContentType returns the Content-Type header value.
func (h *Headers) ContentType() string {
	return h.Get("Content-Type")
}

// Link returns every Link header value concatenated into one logical
// multi-valued list (spec §4.2 step 4: "concatenate all Link headers").
func (h *Headers) Link() []string {
	return h.Values("Link")
}

// RequestID returns the correlation ID the server assigned to this
// response, or "" if absent.
func (h *Headers) RequestID() string {
	return h.Get(RequestIDHeader)
}
