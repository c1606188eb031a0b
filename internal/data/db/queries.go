package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the stores.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// FilterPref is a row of filter_prefs. A NULL toggle was never saved.
type FilterPref struct {
	Change         string
	UnresolvedOnly sql.NullBool
	DraftsOnly     sql.NullBool
	RobotReplyOnly sql.NullBool
	UpdatedAt      int64
}

const getFilterPref = `SELECT change, unresolved_only, drafts_only, robot_reply_only, updated_at
FROM filter_prefs WHERE change = ?`

func (q *Queries) GetFilterPref(ctx context.Context, change string) (FilterPref, error) {
	row := q.db.QueryRowContext(ctx, getFilterPref, change)
	var p FilterPref
	err := row.Scan(&p.Change, &p.UnresolvedOnly, &p.DraftsOnly, &p.RobotReplyOnly, &p.UpdatedAt)
	return p, err
}

const listFilterPrefs = `SELECT change, unresolved_only, drafts_only, robot_reply_only, updated_at
FROM filter_prefs ORDER BY updated_at DESC, change`

func (q *Queries) ListFilterPrefs(ctx context.Context) ([]FilterPref, error) {
	rows, err := q.db.QueryContext(ctx, listFilterPrefs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []FilterPref
	for rows.Next() {
		var p FilterPref
		if err := rows.Scan(&p.Change, &p.UnresolvedOnly, &p.DraftsOnly, &p.RobotReplyOnly, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const upsertFilterPref = `INSERT INTO filter_prefs (change, unresolved_only, drafts_only, robot_reply_only, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(change) DO UPDATE SET
    unresolved_only  = excluded.unresolved_only,
    drafts_only      = excluded.drafts_only,
    robot_reply_only = excluded.robot_reply_only,
    updated_at       = excluded.updated_at`

func (q *Queries) UpsertFilterPref(ctx context.Context, p FilterPref) error {
	_, err := q.db.ExecContext(ctx, upsertFilterPref, p.Change, p.UnresolvedOnly, p.DraftsOnly, p.RobotReplyOnly, p.UpdatedAt)
	return err
}

const deleteFilterPref = `DELETE FROM filter_prefs WHERE change = ?`

func (q *Queries) DeleteFilterPref(ctx context.Context, change string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFilterPref, change)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
