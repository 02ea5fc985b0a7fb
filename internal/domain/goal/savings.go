package goal

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"poupa/internal/domain/transaction"
)

// AllocationTag marks ledger entries written by AllocateSavings.
const AllocationTag = transaction.AllocationTag

// Share is the part of a pooled amount assigned to one goal.
type Share struct {
	Goal   *Goal
	Amount decimal.Decimal
}

// Split distributes amount over goals in proportion to their target amounts.
// Shares are whole cents: each goal gets the floor of its exact share and the
// leftover cents go to the largest remainders, so the shares always add up
// to amount rounded to cents. Goals whose share is zero are omitted.
func Split(amount decimal.Decimal, goals []*Goal) []Share {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(g.TargetAmount)
	}
	if len(goals) == 0 || !total.IsPositive() {
		return nil
	}

	pool := amount.Round(2).Shift(2)
	type part struct {
		cents     int64
		remainder decimal.Decimal
	}
	parts := make([]part, len(goals))
	var assigned int64
	for i, g := range goals {
		exact := pool.Mul(g.TargetAmount).Div(total)
		floor := exact.Floor()
		parts[i] = part{cents: floor.IntPart(), remainder: exact.Sub(floor)}
		assigned += parts[i].cents
	}

	order := make([]int, len(goals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return parts[order[a]].remainder.GreaterThan(parts[order[b]].remainder)
	})
	for left, k := pool.IntPart()-assigned, 0; left > 0; left, k = left-1, k+1 {
		parts[order[k%len(order)]].cents++
	}

	shares := make([]Share, 0, len(goals))
	for i, p := range parts {
		if p.cents <= 0 {
			continue
		}
		shares = append(shares, Share{Goal: goals[i], Amount: decimal.New(p.cents, -2)})
	}
	return shares
}

// Allocation reports one ledger entry written by AllocateSavings.
type Allocation struct {
	GoalID        string          `json:"goalId"`
	GoalName      string          `json:"goalName"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	TransactionID string          `json:"transactionId"`
}

// AllocateSavings splits amount over the user's active goals by target size,
// records a Savings transaction per goal and refreshes each goal's progress.
// Without active goals it does nothing. A failure midway leaves the entries
// already written in place.
func (s *Service) AllocateSavings(ctx context.Context, userID int64, amount decimal.Decimal) ([]Allocation, error) {
	if userID <= 0 {
		return nil, ErrInvalidGoalUser
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	goals, err := s.GetActiveGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		log.Printf("Savings allocation for user %d skipped: no active goals", userID)
		return []Allocation{}, nil
	}

	base, err := s.baseCurrency(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	allocations := make([]Allocation, 0, len(goals))

	for _, share := range Split(amount, goals) {
		goalID := share.Goal.ID
		params := transaction.CreateParams{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         transaction.TypeExpense,
			Category:     transaction.CategorySavings,
			Amount:       share.Amount,
			Date:         today,
			Description:  fmt.Sprintf("Savings allocation to goal %q", share.Goal.Name),
			Tags:         []string{AllocationTag},
			CurrencyCode: base,
			GoalID:       &goalID,
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}

		tx, err := s.ledger.Create(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to record allocation for goal %s: %w", goalID, err)
		}
		allocationsTotal.Add(ctx, 1)

		if _, err := s.TrackGoalProgress(ctx, goalID); err != nil {
			return nil, err
		}

		allocations = append(allocations, Allocation{
			GoalID:        goalID,
			GoalName:      share.Goal.Name,
			Amount:        share.Amount,
			CurrencyCode:  base,
			TransactionID: tx.ID,
		})
	}

	return allocations, nil
}

// NetSavings is income minus expenses over a period, in the user's base
// currency. Every Income and Expense entry in the period counts, whatever
// its category.
type NetSavings struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	CurrencyCode string          `json:"currencyCode"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Net          decimal.Decimal `json:"net"`
}

// CalculateNetSavings only reads; use AllocateNetSavings to act on the result.
func (s *Service) CalculateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*NetSavings, error) {
	if userID <= 0 {
		return nil, ErrInvalidGoalUser
	}
	if from.After(to) {
		return nil, ErrInvalidPeriod
	}

	base, err := s.baseCurrency(ctx, userID)
	if err != nil {
		return nil, err
	}

	var incomes, expenses []*transaction.Transaction
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		incomes, err = s.ledger.List(gctx, userID, transaction.ListFilter{Type: transaction.TypeIncome, From: &from, To: &to})
		return err
	})
	eg.Go(func() error {
		var err error
		expenses, err = s.ledger.List(gctx, userID, transaction.ListFilter{Type: transaction.TypeExpense, From: &from, To: &to})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load ledger for user %d: %w", userID, err)
	}

	income, err := s.converter.ToBase(ctx, transaction.TotalsByCurrency(incomes), base)
	if err != nil {
		return nil, err
	}
	spent, err := s.converter.ToBase(ctx, transaction.TotalsByCurrency(expenses), base)
	if err != nil {
		return nil, err
	}

	return &NetSavings{
		From:         from,
		To:           to,
		CurrencyCode: base,
		Income:       income,
		Expenses:     spent,
		Net:          income.Sub(spent),
	}, nil
}

// AllocateNetSavings computes net savings over the period and allocates
// them when positive.
func (s *Service) AllocateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*NetSavings, []Allocation, error) {
	net, err := s.CalculateNetSavings(ctx, userID, from, to)
	if err != nil {
		return nil, nil, err
	}
	if !net.Net.IsPositive() {
		return net, []Allocation{}, nil
	}

	allocations, err := s.AllocateSavings(ctx, userID, net.Net)
	if err != nil {
		return net, nil, err
	}
	return net, allocations, nil
}

// CalculateTotalSavings sums every Savings transaction of the user in the
// user's base currency.
func (s *Service) CalculateTotalSavings(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if userID <= 0 {
		return decimal.Zero, ErrInvalidGoalUser
	}
	base, err := s.baseCurrency(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	txs, err := s.ledger.List(ctx, userID, transaction.ListFilter{Category: transaction.CategorySavings})
	if err != nil {
		return decimal.Zero, err
	}
	return s.converter.ToBase(ctx, transaction.TotalsByCurrency(txs), base)
}
