// Package audit implements the asynchronous audit event pipeline used by
// the root engine. Events are buffered through a Dispatcher and delivered
// to a caller-supplied Sink off the request path; delivery is best effort
// and never blocks or fails a token operation.
package audit
