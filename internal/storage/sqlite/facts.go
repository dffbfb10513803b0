package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
)

var ErrFactNotFound = errors.New("fact not found")

type FactRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewFactRepo(db *sql.DB) *FactRepo {
	return &FactRepo{db: db, now: time.Now}
}

// IngestFact stores content verbatim. Callers validate text before it gets here.
func (r *FactRepo) IngestFact(ctx context.Context, owner, content, source string, at time.Time) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO facts (owner, content, source, at, created_at) VALUES (?, ?, ?, ?, ?)`,
		owner, content, source, toMillis(at), r.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert fact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// ForgetFact deletes a fact of owner. Unknown ids and facts of other owners are ErrFactNotFound.
func (r *FactRepo) ForgetFact(ctx context.Context, owner, factID string) error {
	id, err := strconv.ParseInt(factID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrFactNotFound, factID)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM facts WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrFactNotFound, factID)
	}
	return nil
}

// ListFacts returns facts ordered by at, undated ones last.
func (r *FactRepo) ListFacts(ctx context.Context, owner string) ([]core.Fact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, content, source, at FROM facts WHERE owner = ? ORDER BY at IS NULL, at, id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []core.Fact
	for rows.Next() {
		var (
			f  core.Fact
			id int64
			at sql.NullInt64
		)
		if err := rows.Scan(&id, &f.Owner, &f.Content, &f.Source, &at); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		f.ID = strconv.FormatInt(id, 10)
		f.At = fromMillis(at)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
