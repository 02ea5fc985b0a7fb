package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poupa/internal/domain/goal"
)

type GoalRepository struct {
	db *DB
}

func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `
	g.id, g.user_id, g.name, g.target_amount, g.current_amount, g.progress_percentage,
	g.deadline, l.budget_id, g.version, g.created_at, g.updated_at`

const goalFrom = `
	FROM goals g
	LEFT JOIN goal_budget_links l ON l.goal_id = g.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*goal.Goal, error) {
	var g goal.Goal
	var budgetID sql.NullString
	err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.ProgressPercentage,
		&g.Deadline, &budgetID, &g.Version, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if budgetID.Valid {
		g.BudgetID = &budgetID.String
	}
	return &g, nil
}

func (r *GoalRepository) Create(ctx context.Context, params goal.CreateParams) (*goal.Goal, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, progress_percentage, deadline)
		VALUES ($1, $2, $3, $4, 0, 0, $5)
	`, params.ID, params.UserID, params.Name, params.TargetAmount, params.Deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return r.GetByID(ctx, params.ID)
}

func (r *GoalRepository) GetByID(ctx context.Context, id string) (*goal.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+goalFrom+` WHERE g.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goal.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

func (r *GoalRepository) ListByUserID(ctx context.Context, userID int64, status goal.Status, now time.Time) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + goalFrom + ` WHERE g.user_id = $1`
	args := []any{userID}

	switch status {
	case goal.StatusActive:
		query += ` AND g.deadline > $2`
		args = append(args, now)
	case goal.StatusCompleted:
		query += ` AND g.progress_percentage >= 100`
	case goal.StatusOverdue:
		query += ` AND g.deadline < $2 AND g.progress_percentage < 100`
		args = append(args, now)
	}
	query += ` ORDER BY g.deadline, g.created_at`

	return r.list(ctx, query, args...)
}

func (r *GoalRepository) ListActive(ctx context.Context, now time.Time) ([]*goal.Goal, error) {
	return r.list(ctx, `SELECT `+goalColumns+goalFrom+` WHERE g.deadline > $1 ORDER BY g.user_id, g.deadline`, now)
}

func (r *GoalRepository) list(ctx context.Context, query string, args ...any) ([]*goal.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *GoalRepository) ListUserIDsWithActiveGoals(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM goals WHERE deadline > $1 ORDER BY user_id`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan goal owner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update writes g only when its version is still current, bumping the
// version in the same statement.
func (r *GoalRepository) Update(ctx context.Context, g *goal.Goal) (*goal.Goal, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET name = $1,
		    target_amount = $2,
		    current_amount = $3,
		    progress_percentage = $4,
		    deadline = $5,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $6 AND version = $7
	`, g.Name, g.TargetAmount, g.CurrentAmount, g.ProgressPercentage, g.Deadline, g.ID, g.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM goals WHERE id = $1)`, g.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check goal: %w", err)
		}
		if !exists {
			return nil, goal.ErrGoalNotFound
		}
		return nil, goal.ErrVersionConflict
	}

	return r.GetByID(ctx, g.ID)
}

func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n == 0 {
		return goal.ErrGoalNotFound
	}
	return nil
}

// LinkRepository stores goal/budget pairs in goal_budget_links.
type LinkRepository struct {
	db *DB
}

func NewLinkRepository(db *DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Link drops any pair that involves the budget and then upserts the goal's
// pair, so both uniqueness constraints hold after commit.
func (r *LinkRepository) Link(ctx context.Context, goalID, budgetID string) error {
	return r.db.WithTx(ctx, "link_budget", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM goal_budget_links WHERE budget_id = $1 AND goal_id <> $2`,
			budgetID, goalID,
		); err != nil {
			return fmt.Errorf("failed to release budget link: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO goal_budget_links (goal_id, budget_id)
			VALUES ($1, $2)
			ON CONFLICT (goal_id) DO UPDATE
				SET budget_id = EXCLUDED.budget_id,
				    created_at = NOW()
		`, goalID, budgetID); err != nil {
			return fmt.Errorf("failed to link budget: %w", err)
		}
		return nil
	})
}

func (r *LinkRepository) Unlink(ctx context.Context, goalID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goal_budget_links WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("failed to unlink budget: %w", err)
	}
	return nil
}
