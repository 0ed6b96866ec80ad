// Package oktahttp implements the HTTP request execution core of the Okta
// API client: a retrying executor layered on a single-attempt transport
// executor. RetryExecutor owns attempt accounting, elapsed-time budgeting,
// backoff (including 429 reset-header parsing), retryable classification,
// and retry-correlation headers. TransportExecutor owns request
// authentication, wire-request construction, pooled submission, and
// response normalization.
package oktahttp
