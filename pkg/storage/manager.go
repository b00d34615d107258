// Package storage persists friend-list snapshots and the activity log as
// flat files in the output directory: <username>_friends.csv and
// <username>_friends.json hold the latest snapshot, and
// <username>_activity_log.txt accumulates detected changes.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"friendtrack/pkg/logger"
	"friendtrack/pkg/snapshot"
)

// maxMissingRatio is the fraction of username-less records above which an
// existing snapshot will not be overwritten. Losing most usernames at once
// points at an API problem, not at the friend list actually changing.
const maxMissingRatio = 0.20

// activityTimeFormat matches the timestamps in the activity log
const activityTimeFormat = "2006-01-02 15:04:05"

var csvHeader = []string{"id", "name", "displayName", "hasVerifiedBadge"}

// Manager handles snapshot and activity-log file operations for one output
// directory
type Manager struct {
	baseDir string
	logger  logger.Logger
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if log == nil {
		log = logger.GetLogger()
	}

	return &Manager{
		baseDir: baseDir,
		logger:  log,
	}, nil
}

// BaseDir returns the output directory path
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// CSVPath returns the snapshot CSV path for a username
func (m *Manager) CSVPath(username string) string {
	return filepath.Join(m.baseDir, username+"_friends.csv")
}

// JSONPath returns the snapshot JSON path for a username
func (m *Manager) JSONPath(username string) string {
	return filepath.Join(m.baseDir, username+"_friends.json")
}

// ActivityLogPath returns the activity log path for a username
func (m *Manager) ActivityLogPath(username string) string {
	return filepath.Join(m.baseDir, username+"_activity_log.txt")
}

// HasSnapshot reports whether a previous snapshot exists for the username
func (m *Manager) HasSnapshot(username string) bool {
	if _, err := os.Stat(m.JSONPath(username)); err == nil {
		return true
	}
	if _, err := os.Stat(m.CSVPath(username)); err == nil {
		return true
	}
	return false
}

// SaveSnapshot overwrites the CSV and JSON snapshot files for the username.
// When a previous snapshot exists and too many records in the new one lack a
// username, the save is refused so a degraded API response cannot destroy the
// history both files represent.
func (m *Manager) SaveSnapshot(username string, snap snapshot.Snapshot) error {
	if ratio := snap.MissingUsernameRatio(); ratio > maxMissingRatio && m.HasSnapshot(username) {
		m.logger.ErrorWithFields("refusing to overwrite snapshot", map[string]interface{}{
			"username":      username,
			"missing_ratio": ratio,
			"friends":       len(snap),
		})
		return fmt.Errorf("refusing to overwrite snapshot for %s: %.0f%% of records lack a username", username, ratio*100)
	}

	if err := m.saveCSV(m.CSVPath(username), snap); err != nil {
		return err
	}
	if err := m.saveJSON(m.JSONPath(username), snap); err != nil {
		return err
	}

	m.logger.InfoWithFields("snapshot saved", map[string]interface{}{
		"username": username,
		"friends":  len(snap),
	})

	return nil
}

func (m *Manager) saveCSV(path string, snap snapshot.Snapshot) error {
	records := make([][]string, 0, len(snap)+1)
	records = append(records, csvHeader)
	for _, rec := range snap {
		records = append(records, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Username,
			rec.DisplayName,
			strconv.FormatBool(rec.HasVerifiedBadge),
		})
	}

	return m.writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		return nil
	})
}

func (m *Manager) saveJSON(path string, snap snapshot.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	return m.writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// writeAtomic writes through a temporary file and renames it into place so a
// crash mid-write never leaves a half-written snapshot behind
func (m *Manager) writeAtomic(path string, write func(*os.File) error) error {
	tempFile := path + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	writeErr := write(f)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	closeErr := f.Close()

	if writeErr != nil {
		os.Remove(tempFile)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// LoadPrevious loads the last saved snapshot for the username. A missing or
// unreadable snapshot is treated as a first run: the return is nil with no
// error, and corruption is logged as a warning.
func (m *Manager) LoadPrevious(username string) snapshot.Snapshot {
	if snap, err := m.loadJSON(m.JSONPath(username)); err == nil {
		return snap
	} else if !os.IsNotExist(err) {
		m.logger.WarnWithFields("previous json snapshot unreadable, trying csv", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}

	snap, err := m.loadCSV(m.CSVPath(username))
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.WarnWithFields("previous snapshot unreadable, treating as first run", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
		}
		return nil
	}
	return snap
}

func (m *Manager) loadJSON(path string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}

func (m *Manager) loadCSV(path string) (snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	var snap snapshot.Snapshot
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("malformed csv row %d", i+1)
		}

		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed id in csv row %d: %w", i+1, err)
		}

		rec := snapshot.FriendRecord{
			ID:       id,
			Username: row[1],
		}
		if len(row) > 2 {
			rec.DisplayName = row[2]
		}
		if len(row) > 3 {
			rec.HasVerifiedBadge, _ = strconv.ParseBool(row[3])
		}
		snap = append(snap, rec)
	}

	return snap, nil
}

// AppendActivity appends the reconciliation report to the activity log, one
// timestamped line per change. An empty report appends nothing.
func (m *Manager) AppendActivity(username string, report snapshot.Report, now time.Time) error {
	if report.Empty() {
		return nil
	}

	f, err := os.OpenFile(m.ActivityLogPath(username), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()

	stamp := now.Format(activityTimeFormat)

	for _, rec := range report.Unfriended {
		line := fmt.Sprintf("[%s] ❌ UNFRIENDED: %s (ID: %d)\n", stamp, rec.Username, rec.ID)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("failed to append to activity log: %w", err)
		}
		logger.LogActivity("unfriended", rec.ID, rec.Username)
	}
	for _, rec := range report.NewFriends {
		line := fmt.Sprintf("[%s] ✅ NEW FRIEND: %s (ID: %d)\n", stamp, rec.Username, rec.ID)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("failed to append to activity log: %w", err)
		}
		logger.LogActivity("new_friend", rec.ID, rec.Username)
	}

	return f.Sync()
}
