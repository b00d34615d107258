// Package tracker orchestrates one tracking run: authenticate, fetch the
// friend list, reconcile it against the previous snapshot, and persist the
// result.
package tracker

import (
	"fmt"
	"time"

	"friendtrack/pkg/config"
	"friendtrack/pkg/logger"
	"friendtrack/pkg/ratelimit"
	"friendtrack/pkg/roblox"
	"friendtrack/pkg/snapshot"
	"friendtrack/pkg/storage"
	"friendtrack/pkg/ui"
)

// maxMissingForReconcile is the fraction of username-less records above which
// reconciliation is skipped. A half-empty response would otherwise report the
// missing half as unfriended.
const maxMissingForReconcile = 0.50

// Result summarizes one tracking run
type Result struct {
	Username  string
	Total     int
	Recovered int
	FirstRun  bool
	Skipped   bool
	Report    snapshot.Report
}

// Tracker runs the fetch-reconcile-persist cycle for one account
type Tracker struct {
	cfg     *config.Config
	client  APIClient
	store   SnapshotStore
	limiter ratelimit.Limiter
	term    *ui.Terminal
	logger  logger.Logger
}

// New creates a tracker wired to the real Roblox API and the configured
// output directory. The cookie must already be resolved into cfg.
func New(cfg *config.Config, term *ui.Terminal, log logger.Logger) (*Tracker, error) {
	if cfg.Roblox.Cookie == "" {
		return nil, fmt.Errorf("no session cookie configured")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	client := roblox.NewClient(cfg.Fetch.RequestTimeout, &cfg.RateLimit, log)
	client.SetCookie(cfg.Roblox.Cookie)
	if cfg.Roblox.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Roblox.UserAgent)
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory, log)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		cfg:     cfg,
		client:  client,
		store:   store,
		limiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		term:    term,
		logger:  log,
	}, nil
}

// NewWithDependencies creates a tracker over explicit dependencies (used in
// tests)
func NewWithDependencies(cfg *config.Config, client APIClient, store SnapshotStore, term *ui.Terminal, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Tracker{
		cfg:     cfg,
		client:  client,
		store:   store,
		limiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		term:    term,
		logger:  log,
	}
}

// Run executes one tracking cycle and returns its result
func (t *Tracker) Run() (*Result, error) {
	user, err := t.client.GetAuthenticatedUser()
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	if t.term != nil {
		t.term.Info("Tracking friends for %s (ID: %d)", user.Name, user.ID)
	}

	current, err := t.fetchSnapshot(user)
	if err != nil {
		return nil, err
	}

	previous := t.store.LoadPrevious(user.Name)
	firstRun := len(previous) == 0

	current, recovered := snapshot.BackfillUsernames(current, previous)
	if recovered > 0 {
		t.logger.InfoWithFields("usernames recovered from history", map[string]interface{}{
			"recovered": recovered,
		})
	}

	result := &Result{
		Username:  user.Name,
		Total:     len(current),
		Recovered: recovered,
		FirstRun:  firstRun,
	}

	if ratio := current.MissingUsernameRatio(); !firstRun && ratio > maxMissingForReconcile {
		t.logger.WarnWithFields("skipping reconciliation, too many usernames missing", map[string]interface{}{
			"missing_ratio": ratio,
			"friends":       len(current),
		})
		if t.term != nil {
			t.term.Warning("Skipping change detection: %.0f%% of usernames are missing from the API response", ratio*100)
		}
		result.Skipped = true
	} else {
		result.Report = snapshot.Reconcile(previous, current)
	}

	if err := t.store.SaveSnapshot(user.Name, current); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if !result.Skipped {
		if err := t.store.AppendActivity(user.Name, result.Report, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to append activity log: %w", err)
		}
	}

	t.logger.InfoWithFields("tracking run complete", map[string]interface{}{
		"username":    user.Name,
		"friends":     result.Total,
		"new_friends": len(result.Report.NewFriends),
		"unfriended":  len(result.Report.Unfriended),
		"first_run":   firstRun,
	})

	if t.term != nil {
		if firstRun {
			t.term.Info("First run: baseline snapshot saved, no changes to report.")
		} else if !result.Skipped {
			t.term.PrintReport(result.Report)
		}
		t.term.PrintSummary(user.Name, result.Total, recovered)
	}

	return result, nil
}

// fetchSnapshot pulls the full friend list and resolves user details into an
// ordered snapshot. Requests are paced through the token bucket.
func (t *Tracker) fetchSnapshot(user *roblox.AuthenticatedUser) (snapshot.Snapshot, error) {
	t.limiter.Wait()
	ids, err := t.client.FetchAllFriendIDs(user.ID, t.cfg.Fetch.PageSize, func(page, fetched int) {
		logger.LogFetchProgress(user.Name, page, fetched)
		t.limiter.Wait()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend list: %w", err)
	}

	details, err := t.client.FetchUserDetails(ids, t.cfg.Fetch.BatchSize, func(batch, resolved int) {
		t.limiter.Wait()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user details: %w", err)
	}

	current := make(snapshot.Snapshot, 0, len(ids))
	for _, id := range ids {
		rec := snapshot.FriendRecord{ID: id}
		if d, ok := details[id]; ok {
			rec.Username = d.Name
			rec.DisplayName = d.DisplayName
			rec.HasVerifiedBadge = d.HasVerifiedBadge
		}
		current = append(current, rec)
	}

	return current, nil
}
