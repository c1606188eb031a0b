// Package stores implements persistence on top of the SQLite database.
package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/internal/data/db"
)

const (
	busyRetries = 3
	busyWait    = 50 * time.Millisecond
)

// SavedFilters is the stored toggle state for one change.
type SavedFilters struct {
	Change    string
	Filters   thread.Filters
	UpdatedAt time.Time
}

// FilterStore implements threadlist.FilterStore using SQLite.
type FilterStore struct {
	db  *db.DB
	now func() time.Time
}

var _ threadlist.FilterStore = (*FilterStore)(nil)

// NewFilterStore creates a new SQLite-backed filter store.
func NewFilterStore(database *db.DB) *FilterStore {
	return &FilterStore{db: database, now: time.Now}
}

// GetFilters returns the saved toggles for change. Toggles that were never
// saved are nil. Returns threadlist.ErrNoFilters if nothing was saved.
func (s *FilterStore) GetFilters(ctx context.Context, change string) (thread.Filters, error) {
	row, err := s.db.Queries().GetFilterPref(ctx, change)
	if IsNotFoundError(err) {
		return thread.Filters{}, threadlist.ErrNoFilters
	}
	if err != nil {
		return thread.Filters{}, fmt.Errorf("failed to get filters for %s: %w", change, err)
	}

	return rowToFilters(row), nil
}

// SaveFilters replaces the saved toggles for change.
func (s *FilterStore) SaveFilters(ctx context.Context, change string, f thread.Filters) error {
	row := db.FilterPref{
		Change:         change,
		UnresolvedOnly: nullBool(f.UnresolvedOnly),
		DraftsOnly:     nullBool(f.DraftsOnly),
		RobotReplyOnly: nullBool(f.OnlyRobotCommentsWithHumanReply),
		UpdatedAt:      s.now().UnixNano(),
	}

	var err error
	for i := range busyRetries {
		err = s.db.Queries().UpsertFilterPref(ctx, row)
		if !IsBusyError(err) {
			break
		}
		if i < busyRetries-1 {
			time.Sleep(busyWait)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save filters for %s: %w", change, err)
	}
	return nil
}

// UpdateFilters merges f over the saved toggles for change inside a single
// transaction and returns the stored result.
func (s *FilterStore) UpdateFilters(ctx context.Context, change string, f thread.Filters) (thread.Filters, error) {
	var merged thread.Filters
	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		existing := thread.Filters{}
		row, err := q.GetFilterPref(ctx, change)
		switch {
		case IsNotFoundError(err):
		case err != nil:
			return err
		default:
			existing = rowToFilters(row)
		}

		merged = f.Merge(existing)
		return q.UpsertFilterPref(ctx, db.FilterPref{
			Change:         change,
			UnresolvedOnly: nullBool(merged.UnresolvedOnly),
			DraftsOnly:     nullBool(merged.DraftsOnly),
			RobotReplyOnly: nullBool(merged.OnlyRobotCommentsWithHumanReply),
			UpdatedAt:      s.now().UnixNano(),
		})
	})
	if err != nil {
		return thread.Filters{}, fmt.Errorf("failed to update filters for %s: %w", change, err)
	}
	return merged, nil
}

// DeleteFilters removes the saved toggles for change. It reports whether
// anything was removed.
func (s *FilterStore) DeleteFilters(ctx context.Context, change string) (bool, error) {
	n, err := s.db.Queries().DeleteFilterPref(ctx, change)
	if err != nil {
		return false, fmt.Errorf("failed to delete filters for %s: %w", change, err)
	}
	return n > 0, nil
}

// List returns every saved entry, most recently updated first.
func (s *FilterStore) List(ctx context.Context) ([]SavedFilters, error) {
	rows, err := s.db.Queries().ListFilterPrefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}

	out := make([]SavedFilters, 0, len(rows))
	for _, row := range rows {
		out = append(out, SavedFilters{
			Change:    row.Change,
			Filters:   rowToFilters(row),
			UpdatedAt: time.Unix(0, row.UpdatedAt),
		})
	}
	return out, nil
}

func rowToFilters(row db.FilterPref) thread.Filters {
	return thread.Filters{
		UnresolvedOnly:                  boolPtr(row.UnresolvedOnly),
		DraftsOnly:                      boolPtr(row.DraftsOnly),
		OnlyRobotCommentsWithHumanReply: boolPtr(row.RobotReplyOnly),
	}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	b := n.Bool
	return &b
}
