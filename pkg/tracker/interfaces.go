package tracker

import (
	"time"

	"friendtrack/pkg/roblox"
	"friendtrack/pkg/snapshot"
)

// APIClient is the slice of the Roblox client the tracker depends on
type APIClient interface {
	GetAuthenticatedUser() (*roblox.AuthenticatedUser, error)
	FetchAllFriendIDs(userID int64, limit int, onPage func(page, fetched int)) ([]int64, error)
	FetchUserDetails(ids []int64, batchSize int, onBatch func(batch, resolved int)) (map[int64]roblox.UserDetails, error)
}

// SnapshotStore is the slice of the storage manager the tracker depends on
type SnapshotStore interface {
	LoadPrevious(username string) snapshot.Snapshot
	SaveSnapshot(username string, snap snapshot.Snapshot) error
	AppendActivity(username string, report snapshot.Report, now time.Time) error
}
