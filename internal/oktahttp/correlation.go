package oktahttp

import "github.com/google/uuid"

// ClientTraceHeader carries a client-generated correlation ID, distinct from
// the server-assigned X-Okta-Request-Id echoed back in responses (spec §3's
// "remembered correlation ID" tracks the latter; this header lets operators
// correlate a single logical call across client-side logs even before a
// response exists).
const ClientTraceHeader = "X-Client-Trace-Id"

// newClientTraceID returns a fresh per-call trace identifier.
func newClientTraceID() string {
	return uuid.NewString()
}
