// Package retry implements bounded retry with pluggable backoff strategies.
//
// Operations are retried according to a Config: a maximum attempt count, a
// BackoffStrategy (exponential with jitter, linear, or constant), and a
// RetryIf predicate. The default predicate consults the typed errors from
// friendtrack/pkg/errors, so network, rate-limit, and server errors are
// retried while auth and not-found errors fail fast.
//
// RateLimitBackoff produces the linearly increasing wait applied after 429
// responses. Waits are context-aware and abort promptly on cancellation.
package retry
