package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"jordanella.com/scrollshot/internal/database"
)

// statsWindow is the period summarised under the session list
const statsWindow = 30 * 24 * time.Hour

// printHistory lists recent sessions followed by per-state counts for the
// last 30 days and the table totals
func printHistory(w io.Writer, db *database.DB, limit int, now time.Time) error {
	sessions, err := db.GetRecentSessions(limit)
	if err != nil {
		return err
	}

	for _, s := range sessions {
		out := "-"
		if s.OutputPath != nil {
			out = *s.OutputPath
		}
		fmt.Fprintf(w, "%s  %-9s  %3d frames  %5dpx  %s  %s\n",
			s.StartedAt.Local().Format(time.DateTime), s.State, s.Frames, s.Height, s.Region, out)
	}

	byState, err := db.GetSessionStats(now.Add(-statsWindow), now)
	if err != nil {
		return err
	}
	states := make([]string, 0, len(byState))
	for state := range byState {
		states = append(states, state)
	}
	sort.Strings(states)

	fmt.Fprint(w, "Last 30 days:")
	if len(states) == 0 {
		fmt.Fprint(w, " none")
	}
	for _, state := range states {
		fmt.Fprintf(w, " %s=%d", state, byState[state])
	}
	fmt.Fprintln(w)

	totals, err := db.GetStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored: %d sessions, %d errors\n", totals["capture_sessions"], totals["session_errors"])
	return nil
}

// pruneHistory deletes sessions older than days. A sqlite store is copied to
// <path>.bak before anything is removed. days <= 0 keeps everything.
func pruneHistory(db *database.DB, days int, now time.Time) (int64, error) {
	if days <= 0 {
		return 0, nil
	}

	if db.Dialect() == database.DialectSQLite {
		if err := db.Backup(db.Path() + ".bak"); err != nil {
			return 0, fmt.Errorf("backup before pruning: %w", err)
		}
	}

	return db.DeleteOldSessions(now.AddDate(0, 0, -days))
}
