package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
)

// History is the append-only QA log.
type History struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db, now: time.Now}
}

func (h *History) Append(ctx context.Context, rec core.QARecord) error {
	cited := rec.CitedFacts
	if cited == nil {
		cited = []string{}
	}
	citedJSON, err := json.Marshal(cited)
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}

	var confidence sql.NullFloat64
	if rec.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *rec.Confidence, Valid: true}
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO qa_records (owner, question, answer, cited_facts, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Owner, rec.Question, rec.Answer, string(citedJSON), confidence, createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert qa record: %w", err)
	}
	return nil
}

// ListQAs returns the owner's records in insertion order.
func (h *History) ListQAs(ctx context.Context, owner string) ([]core.QARecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, owner, question, answer, cited_facts, confidence, created_at FROM qa_records WHERE owner = ? ORDER BY id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query qa records: %w", err)
	}
	defer rows.Close()

	var records []core.QARecord
	for rows.Next() {
		var (
			rec        core.QARecord
			cited      string
			confidence sql.NullFloat64
			createdAt  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.Question, &rec.Answer, &cited, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan qa record: %w", err)
		}
		if err := json.Unmarshal([]byte(cited), &rec.CitedFacts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			rec.Confidence = &c
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(records)).Msg("loaded qa history")
	return records, nil
}
