package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sandevgo/tuskqa/internal/core"
)

type CheckInRepo struct {
	db *sql.DB
}

func NewCheckInRepo(db *sql.DB) *CheckInRepo {
	return &CheckInRepo{db: db}
}

func (r *CheckInRepo) RecordCheckIn(ctx context.Context, c core.CheckIn) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO checkins (owner, metric, value, unit, at) VALUES (?, ?, ?, ?, ?)`,
		c.Owner, c.Metric, c.Value, c.Unit, toMillis(c.At),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert check-in: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (r *CheckInRepo) ListCheckIns(ctx context.Context, owner string) ([]core.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, metric, value, unit, at FROM checkins WHERE owner = ? ORDER BY at IS NULL, at, id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var out []core.CheckIn
	for rows.Next() {
		var (
			c  core.CheckIn
			id int64
			at sql.NullInt64
		)
		if err := rows.Scan(&id, &c.Owner, &c.Metric, &c.Value, &c.Unit, &at); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		c.At = fromMillis(at)
		out = append(out, c)
	}
	return out, rows.Err()
}
