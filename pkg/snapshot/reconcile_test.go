package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(recs ...FriendRecord) Snapshot {
	return Snapshot(recs)
}

func rec(id int64, name string) FriendRecord {
	return FriendRecord{ID: id, Username: name}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name           string
		previous       Snapshot
		current        Snapshot
		wantNew        []int64
		wantUnfriended []int64
	}{
		{
			name:           "one added one removed",
			previous:       snap(rec(1, "alice"), rec(2, "bob")),
			current:        snap(rec(2, "bob"), rec(3, "carol")),
			wantNew:        []int64{3},
			wantUnfriended: []int64{1},
		},
		{
			name:     "no changes",
			previous: snap(rec(1, "alice"), rec(2, "bob")),
			current:  snap(rec(2, "bob"), rec(1, "alice")),
		},
		{
			name:           "everyone unfriended",
			previous:       snap(rec(1, "alice"), rec(2, "bob")),
			current:        snap(),
			wantUnfriended: []int64{1, 2},
		},
		{
			name:     "first run yields empty report",
			previous: nil,
			current:  snap(rec(1, "alice"), rec(2, "bob")),
		},
		{
			name:           "results are sorted by id",
			previous:       snap(rec(9, "i"), rec(3, "c"), rec(7, "g")),
			current:        snap(rec(8, "h"), rec(2, "b"), rec(5, "e")),
			wantNew:        []int64{2, 5, 8},
			wantUnfriended: []int64{3, 7, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Reconcile(tt.previous, tt.current)

			var gotNew, gotUnfriended []int64
			for _, r := range report.NewFriends {
				gotNew = append(gotNew, r.ID)
			}
			for _, r := range report.Unfriended {
				gotUnfriended = append(gotUnfriended, r.ID)
			}

			assert.Equal(t, tt.wantNew, gotNew)
			assert.Equal(t, tt.wantUnfriended, gotUnfriended)
			assert.Equal(t, len(tt.wantNew) == 0 && len(tt.wantUnfriended) == 0, report.Empty())
		})
	}
}

func TestReconcileDisjointResults(t *testing.T) {
	previous := snap(rec(1, "a"), rec(2, "b"), rec(3, "c"))
	current := snap(rec(3, "c"), rec(4, "d"), rec(5, "e"))

	report := Reconcile(previous, current)

	seen := make(map[int64]bool)
	for _, r := range report.NewFriends {
		seen[r.ID] = true
	}
	for _, r := range report.Unfriended {
		assert.False(t, seen[r.ID], "id %d appears in both lists", r.ID)
	}
}

func TestReconcileAgainstItself(t *testing.T) {
	s := snap(rec(1, "a"), rec(2, "b"), rec(3, "c"))
	assert.True(t, Reconcile(s, s).Empty())
}

func TestReconcileUnfriendedCarriesPreviousData(t *testing.T) {
	previous := snap(FriendRecord{ID: 1, Username: "alice", DisplayName: "Alice"})
	current := snap(rec(2, "bob"))

	report := Reconcile(previous, current)
	require.Len(t, report.Unfriended, 1)
	assert.Equal(t, "alice", report.Unfriended[0].Username)
	assert.Equal(t, "Alice", report.Unfriended[0].DisplayName)
}

func TestBackfillUsernames(t *testing.T) {
	previous := snap(
		FriendRecord{ID: 1, Username: "alice", DisplayName: "Alice"},
		FriendRecord{ID: 2, Username: "bob"},
	)
	current := snap(
		FriendRecord{ID: 1, Username: ""},
		FriendRecord{ID: 2, Username: "bobby"},
		FriendRecord{ID: 3, Username: ""},
	)

	filled, recovered := BackfillUsernames(current, previous)

	require.Len(t, filled, 3)
	assert.Equal(t, 1, recovered)

	assert.Equal(t, "alice", filled[0].Username)
	assert.Equal(t, "Alice", filled[0].DisplayName)

	// Names the API did return are never overwritten
	assert.Equal(t, "bobby", filled[1].Username)

	// Unknown to history gets the placeholder
	assert.Equal(t, PlaceholderUsername, filled[2].Username)
}

func TestBackfillUsernamesFirstRun(t *testing.T) {
	current := snap(rec(1, "alice"), FriendRecord{ID: 2})

	filled, recovered := BackfillUsernames(current, nil)

	assert.Equal(t, 0, recovered)
	assert.Equal(t, "alice", filled[0].Username)
	assert.Equal(t, PlaceholderUsername, filled[1].Username)
}

func TestBackfillDoesNotMutateInput(t *testing.T) {
	current := snap(FriendRecord{ID: 1})
	previous := snap(rec(1, "alice"))

	_, _ = BackfillUsernames(current, previous)
	assert.Equal(t, "", current[0].Username)
}

func TestBackfillPlaceholderNotRecoveredFromHistory(t *testing.T) {
	// A placeholder stored in an earlier run must not masquerade as a real name
	previous := snap(rec(1, PlaceholderUsername))
	current := snap(FriendRecord{ID: 1})

	filled, recovered := BackfillUsernames(current, previous)
	assert.Equal(t, 0, recovered)
	assert.Equal(t, PlaceholderUsername, filled[0].Username)
}

func TestMissingUsernameRatio(t *testing.T) {
	assert.Equal(t, 0.0, Snapshot{}.MissingUsernameRatio())

	s := snap(rec(1, "a"), FriendRecord{ID: 2}, rec(3, PlaceholderUsername), rec(4, "d"))
	assert.Equal(t, 2, s.MissingUsernames())
	assert.InDelta(t, 0.5, s.MissingUsernameRatio(), 0.0001)
}
