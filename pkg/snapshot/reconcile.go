package snapshot

import "sort"

// Report holds the outcome of reconciling two snapshots. Unfriended records
// carry the data from the previous snapshot (the current one no longer has
// them); new friends carry the data from the current snapshot. Both lists are
// sorted by ID so the report is deterministic.
type Report struct {
	NewFriends []FriendRecord
	Unfriended []FriendRecord
}

// Empty reports whether no changes were detected
func (r Report) Empty() bool {
	return len(r.NewFriends) == 0 && len(r.Unfriended) == 0
}

// Reconcile computes the set difference between a previous and a current
// snapshot: ids present only in previous are unfriended, ids present only in
// current are new friends. A nil or empty previous snapshot (first run)
// yields an empty report. Pure function, no I/O.
func Reconcile(previous, current Snapshot) Report {
	if len(previous) == 0 {
		return Report{}
	}

	prevIndex := previous.ByID()
	curIndex := current.ByID()

	var report Report
	for id, rec := range prevIndex {
		if _, ok := curIndex[id]; !ok {
			report.Unfriended = append(report.Unfriended, rec)
		}
	}
	for id, rec := range curIndex {
		if _, ok := prevIndex[id]; !ok {
			report.NewFriends = append(report.NewFriends, rec)
		}
	}

	sort.Slice(report.Unfriended, func(i, j int) bool {
		return report.Unfriended[i].ID < report.Unfriended[j].ID
	})
	sort.Slice(report.NewFriends, func(i, j int) bool {
		return report.NewFriends[i].ID < report.NewFriends[j].ID
	})

	return report
}

// BackfillUsernames returns a copy of current in which records with an empty
// username take the username (and display name) last seen for the same id in
// previous. Records the history cannot resolve get the placeholder marker.
// The second return value is the number of records recovered from history.
//
// The upstream users API is known to occasionally return empty names; this
// substitution is expected behavior, not an error.
func BackfillUsernames(current, previous Snapshot) (Snapshot, int) {
	prevIndex := previous.ByID()

	filled := make(Snapshot, len(current))
	recovered := 0

	for i, rec := range current {
		if rec.Username == "" {
			if old, ok := prevIndex[rec.ID]; ok && old.Username != "" && old.Username != PlaceholderUsername {
				rec.Username = old.Username
				if rec.DisplayName == "" {
					rec.DisplayName = old.DisplayName
				}
				recovered++
			} else {
				rec.Username = PlaceholderUsername
			}
		}
		filled[i] = rec
	}

	return filled, recovered
}
