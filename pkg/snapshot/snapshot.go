// Package snapshot defines the friend-list snapshot model and the pure
// reconciliation logic between two snapshots.
package snapshot

// PlaceholderUsername marks records whose username neither the API nor the
// previous snapshot could supply.
const PlaceholderUsername = "(unknown)"

// FriendRecord is a single friend as captured in one run. Records are unique
// by ID. The JSON field names follow the Roblox users API so snapshot files
// round-trip against API payloads.
type FriendRecord struct {
	ID               int64  `json:"id"`
	Username         string `json:"name"`
	DisplayName      string `json:"displayName"`
	HasVerifiedBadge bool   `json:"hasVerifiedBadge"`
}

// Snapshot is the full friend list captured at one point in time.
type Snapshot []FriendRecord

// ByID returns an ID-keyed index of the snapshot
func (s Snapshot) ByID() map[int64]FriendRecord {
	index := make(map[int64]FriendRecord, len(s))
	for _, rec := range s {
		index[rec.ID] = rec
	}
	return index
}

// MissingUsernames counts records with an empty or placeholder username
func (s Snapshot) MissingUsernames() int {
	missing := 0
	for _, rec := range s {
		if rec.Username == "" || rec.Username == PlaceholderUsername {
			missing++
		}
	}
	return missing
}

// MissingUsernameRatio returns the fraction of records lacking a username.
// An empty snapshot has a ratio of zero.
func (s Snapshot) MissingUsernameRatio() float64 {
	if len(s) == 0 {
		return 0
	}
	return float64(s.MissingUsernames()) / float64(len(s))
}
