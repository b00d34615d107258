package tracker

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendtrack/pkg/config"
	"friendtrack/pkg/logger"
	"friendtrack/pkg/roblox"
	"friendtrack/pkg/snapshot"
	"friendtrack/pkg/storage"
)

// mockClient serves a canned friend list
type mockClient struct {
	user    roblox.AuthenticatedUser
	friends []roblox.UserDetails
	authErr error

	// ids returned by the listing but absent from the details response
	unresolvable []int64
}

func (m *mockClient) GetAuthenticatedUser() (*roblox.AuthenticatedUser, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	u := m.user
	return &u, nil
}

func (m *mockClient) FetchAllFriendIDs(userID int64, limit int, onPage func(int, int)) ([]int64, error) {
	var ids []int64
	for _, f := range m.friends {
		ids = append(ids, f.ID)
	}
	ids = append(ids, m.unresolvable...)
	if onPage != nil {
		onPage(1, len(ids))
	}
	return ids, nil
}

func (m *mockClient) FetchUserDetails(ids []int64, batchSize int, onBatch func(int, int)) (map[int64]roblox.UserDetails, error) {
	details := make(map[int64]roblox.UserDetails)
	for _, f := range m.friends {
		details[f.ID] = f
	}
	return details, nil
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = dir
	// Keep the token bucket out of the way in tests
	cfg.RateLimit.RequestsPerMinute = 100000
	return cfg
}

func newTestTracker(t *testing.T, dir string, client APIClient) *Tracker {
	t.Helper()
	store, err := storage.NewManager(dir, logger.NewNopLogger())
	require.NoError(t, err)
	return NewWithDependencies(testConfig(dir), client, store, nil, logger.NewNopLogger())
}

func details(id int64, name string) roblox.UserDetails {
	return roblox.UserDetails{ID: id, Name: name, DisplayName: strings.ToUpper(name)}
}

func TestRunFirstRun(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:    roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends: []roblox.UserDetails{details(1, "alice"), details(2, "bob")},
	}

	result, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	assert.True(t, result.FirstRun)
	assert.Equal(t, 2, result.Total)
	assert.True(t, result.Report.Empty())

	// Baseline snapshot written, no activity log yet
	assert.FileExists(t, dir+"/me_friends.csv")
	assert.FileExists(t, dir+"/me_friends.json")
	assert.NoFileExists(t, dir+"/me_activity_log.txt")
}

func TestRunDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:    roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends: []roblox.UserDetails{details(1, "alice"), details(2, "bob")},
	}

	_, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	// Second run: bob gone, carol new
	client.friends = []roblox.UserDetails{details(1, "alice"), details(3, "carol")}

	result, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	assert.False(t, result.FirstRun)
	require.Len(t, result.Report.Unfriended, 1)
	require.Len(t, result.Report.NewFriends, 1)
	assert.Equal(t, "bob", result.Report.Unfriended[0].Username)
	assert.Equal(t, "carol", result.Report.NewFriends[0].Username)

	data, err := os.ReadFile(dir + "/me_activity_log.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "❌ UNFRIENDED: bob (ID: 2)")
	assert.Contains(t, string(data), "✅ NEW FRIEND: carol (ID: 3)")
}

func TestRunNoChanges(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:    roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends: []roblox.UserDetails{details(1, "alice")},
	}

	tr := newTestTracker(t, dir, client)
	_, err := tr.Run()
	require.NoError(t, err)

	result, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	assert.True(t, result.Report.Empty())
	assert.NoFileExists(t, dir+"/me_activity_log.txt")
}

func TestRunBackfillsMissingUsernames(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:    roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends: []roblox.UserDetails{details(1, "alice"), details(2, "bob"), details(3, "carol")},
	}

	_, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	// Next run the details endpoint fails to resolve alice
	client.friends = []roblox.UserDetails{details(2, "bob"), details(3, "carol")}
	client.unresolvable = []int64{1}

	result, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Recovered)
	// alice is still a friend, so no change is reported
	assert.True(t, result.Report.Empty())

	store, err := storage.NewManager(dir, logger.NewNopLogger())
	require.NoError(t, err)
	saved := store.LoadPrevious("me")
	assert.Contains(t, saved, snapshot.FriendRecord{ID: 1, Username: "alice", DisplayName: "ALICE"})
}

func TestRunUnresolvableWithoutHistoryGetsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:         roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends:      []roblox.UserDetails{details(1, "alice"), details(2, "bob"), details(3, "carol"), details(4, "dave")},
		unresolvable: []int64{5},
	}

	result, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)

	store, err := storage.NewManager(dir, logger.NewNopLogger())
	require.NoError(t, err)
	saved := store.LoadPrevious("me")
	assert.Contains(t, saved, snapshot.FriendRecord{ID: 5, Username: snapshot.PlaceholderUsername})
}

func TestRunSkipsReconcileWhenMostUsernamesMissing(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		user:    roblox.AuthenticatedUser{ID: 99, Name: "me"},
		friends: []roblox.UserDetails{details(1, "alice"), details(2, "bob")},
	}

	_, err := newTestTracker(t, dir, client).Run()
	require.NoError(t, err)

	// A degraded response: ids come back but no names resolve, and the ids
	// do not overlap the history so backfill cannot help
	client.friends = nil
	client.unresolvable = []int64{7, 8, 9}

	result, err := newTestTracker(t, dir, client).Run()
	require.Error(t, err)
	assert.Nil(t, result)
	// Reconciliation was skipped and the degraded snapshot refused, so the
	// history survives
	assert.NoFileExists(t, dir+"/me_activity_log.txt")

	store, err := storage.NewManager(dir, logger.NewNopLogger())
	require.NoError(t, err)
	saved := store.LoadPrevious("me")
	require.Len(t, saved, 2)
	assert.Equal(t, "alice", saved[0].Username)
}

func TestRunAuthFailure(t *testing.T) {
	client := &mockClient{authErr: fmt.Errorf("cookie expired")}

	_, err := newTestTracker(t, t.TempDir(), client).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}
