package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sandevgo/tuskqa/internal/core"
)

type MealRepo struct {
	db *sql.DB
}

func NewMealRepo(db *sql.DB) *MealRepo {
	return &MealRepo{db: db}
}

func (r *MealRepo) LogMeal(ctx context.Context, meal core.Meal) (string, error) {
	items := meal.Items
	if items == nil {
		items = []string{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meal items: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (owner, at, items, notes) VALUES (?, ?, ?, ?)`,
		meal.Owner, toMillis(meal.At), string(itemsJSON), meal.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert meal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (r *MealRepo) ListMeals(ctx context.Context, owner string) ([]core.Meal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, at, items, notes FROM meals WHERE owner = ? ORDER BY at IS NULL, at, id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []core.Meal
	for rows.Next() {
		var (
			m     core.Meal
			id    int64
			at    sql.NullInt64
			items string
		)
		if err := rows.Scan(&id, &m.Owner, &at, &items, &m.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &m.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meal items: %w", err)
		}
		m.ID = strconv.FormatInt(id, 10)
		m.At = fromMillis(at)
		meals = append(meals, m)
	}
	return meals, rows.Err()
}
