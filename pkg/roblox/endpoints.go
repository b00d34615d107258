package roblox

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// UsersBaseURL is the base URL of the Roblox users API
	UsersBaseURL = "https://users.roblox.com"

	// FriendsBaseURL is the base URL of the Roblox friends API
	FriendsBaseURL = "https://friends.roblox.com"

	// AuthenticatedUserEndpoint validates the session cookie
	AuthenticatedUserEndpoint = "/v1/users/authenticated"

	// UserDetailsEndpoint resolves user details in batches (POST)
	UserDetailsEndpoint = "/v1/users"

	// DefaultPageLimit is the default number of friends fetched per page
	DefaultPageLimit = 50

	// MaxPageLimit is the largest page size the friends API accepts
	MaxPageLimit = 100
)

// friendsFindURL constructs the paginated friends listing URL for a user.
// An empty cursor requests the first page.
func friendsFindURL(baseURL string, userID int64, limit int, cursor string) string {
	if limit <= 0 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	return fmt.Sprintf("%s/v1/users/%d/friends/find?%s", baseURL, userID, params.Encode())
}
