// Package ratelimit paces outgoing Roblox API calls.
//
// The tracker runs every request through a token-bucket Limiter sized from
// the requests_per_minute setting, so a well-behaved run rarely sees a 429
// at all; reactive 429 handling lives in the retry layer.
package ratelimit
