package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"poupa/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetSelect = `
	SELECT b.id, b.user_id, b.category, b.limit_amount, b.start_date, b.end_date,
	       b.notification_enabled, b.currency_code, l.goal_id, b.created_at, b.updated_at
	FROM budgets b
	LEFT JOIN goal_budget_links l ON l.budget_id = b.id`

func scanBudget(row rowScanner) (*budget.Budget, error) {
	var b budget.Budget
	var endDate sql.NullTime
	var goalID sql.NullString
	err := row.Scan(
		&b.ID, &b.UserID, &b.Category, &b.Limit, &b.StartDate, &endDate,
		&b.NotificationEnabled, &b.CurrencyCode, &goalID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		b.EndDate = endDate.Time
	}
	if goalID.Valid {
		b.GoalID = &goalID.String
	}
	return &b, nil
}

func nullTimeArg(p *budget.CreateParams) any {
	if p.EndDate.IsZero() {
		return nil
	}
	return p.EndDate
}

func (r *BudgetRepository) Create(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, limit_amount, start_date, end_date, notification_enabled, currency_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, params.ID, params.UserID, params.Category, params.Limit, params.StartDate, nullTimeArg(&params),
		params.NotificationEnabled, params.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return r.GetByID(ctx, params.ID)
}

func (r *BudgetRepository) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

// GetByGoalID returns nil, nil when the goal has no linked budget.
func (r *BudgetRepository) GetByGoalID(ctx context.Context, goalID string) (*budget.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+` WHERE l.goal_id = $1`, goalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget for goal: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` WHERE b.user_id = $1 ORDER BY b.start_date DESC, b.category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepository) Update(ctx context.Context, id string, params budget.UpdateParams) (*budget.Budget, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Category != nil {
		add("category", *params.Category)
	}
	if params.Limit != nil {
		add("limit_amount", *params.Limit)
	}
	if params.StartDate != nil {
		add("start_date", *params.StartDate)
	}
	if params.EndDate != nil {
		if params.EndDate.IsZero() {
			add("end_date", nil)
		} else {
			add("end_date", *params.EndDate)
		}
	}
	if params.NotificationEnabled != nil {
		add("notification_enabled", *params.NotificationEnabled)
	}
	if params.CurrencyCode != nil {
		add("currency_code", *params.CurrencyCode)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE budgets SET %s, updated_at = NOW() WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, budget.ErrBudgetNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *BudgetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return budget.ErrBudgetNotFound
	}
	return nil
}
