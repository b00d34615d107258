// Package roblox implements the HTTP client for the Roblox web API: session
// validation, the paginated friend listing, and batched user-detail lookups.
//
// Every call runs behind the retry layer with a linear backoff on rate-limit
// responses, so callers see either a final result or a terminal error.
package roblox
