package roblox

// AuthenticatedUser is the response of the authenticated-user endpoint
type AuthenticatedUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// FriendStub is the id-only record returned by the friends listing
type FriendStub struct {
	ID int64 `json:"id"`
}

// FriendsPage is one page of the paginated friends listing. Depending on the
// API revision the items arrive under PageItems or data.
type FriendsPage struct {
	PageItems  []FriendStub `json:"PageItems"`
	Data       []FriendStub `json:"data"`
	NextCursor string       `json:"NextCursor"`
}

// Items returns the friend stubs of the page regardless of which field the
// API populated
func (p *FriendsPage) Items() []FriendStub {
	if len(p.PageItems) > 0 {
		return p.PageItems
	}
	return p.Data
}

// UserDetails is one record of the batched user-details response
type UserDetails struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	HasVerifiedBadge bool   `json:"hasVerifiedBadge"`
}

// UserDetailsResponse is the response of the batched user-details endpoint
type UserDetailsResponse struct {
	Data []UserDetails `json:"data"`
}

// userDetailsRequest is the payload of the batched user-details endpoint
type userDetailsRequest struct {
	UserIDs            []int64 `json:"userIds"`
	ExcludeBannedUsers bool    `json:"excludeBannedUsers"`
}
