package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
)

var (
	expenseCategories = []string{"Food", "Transport", "Housing", "Health", "Leisure", "Education"}
	goalNames         = []string{"Emergency fund", "New laptop", "Wedding", "House down payment", "Car", "Course"}
)

const demoPassword = "demo-password"

func runSeedDemo(args []string) {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	userCount := fs.Int("users", 5, "Number of demo users to create")
	months := fs.Int("months", 3, "Months of ledger history per user")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible data")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *userCount < 1 || *months < 1 {
		fmt.Println("Error: --users and --months must be positive")
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	faker := gofakeit.New(*seed)
	for i := 0; i < *userCount; i++ {
		u, err := a.seedUser(ctx, faker, *months)
		if err != nil {
			log.Fatalf("Seeding user %d failed: %v", i+1, err)
		}
		fmt.Printf("  %s (id %d), password %q\n", u.Email, u.ID, demoPassword)
	}
	log.Printf("Seeded %d demo user(s)", *userCount)
}

// seedUser creates one user with goals, a linked budget and a ledger history,
// then allocates last month's net savings to the goals.
func (a *app) seedUser(ctx context.Context, faker *gofakeit.Faker, months int) (*user.User, error) {
	u, err := a.users.Register(ctx, user.CreateUserParams{
		Email:    fmt.Sprintf("%d.%s", faker.Number(1000, 9999), faker.Email()),
		Name:     faker.Name(),
		Password: demoPassword,
		Role:     user.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var goals []*goal.Goal
	for range faker.Number(1, 3) {
		g, err := a.goals.SetGoal(ctx, goal.CreateParams{
			UserID:       u.ID,
			Name:         faker.RandomString(goalNames),
			TargetAmount: decimal.NewFromInt(int64(faker.Number(10, 200) * 100)),
			Deadline:     now.AddDate(0, faker.Number(2, 24), 0),
		})
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)
	b, err := a.budgets.CreateBudget(ctx, budget.CreateParams{
		UserID:              u.ID,
		Category:            faker.RandomString(expenseCategories),
		Limit:               decimal.NewFromInt(int64(faker.Number(3, 20) * 100)),
		StartDate:           start,
		NotificationEnabled: true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := a.goals.LinkBudgetToGoal(ctx, goals[0].ID, b.ID); err != nil {
		return nil, err
	}

	for m := range months {
		monthStart := start.AddDate(0, m, 0)
		if _, err := a.transactions.Record(ctx, transaction.CreateParams{
			UserID:      u.ID,
			Type:        transaction.TypeIncome,
			Category:    "Salary",
			Amount:      decimal.NewFromInt(int64(faker.Number(30, 90) * 100)),
			Date:        monthStart.AddDate(0, 0, 4),
			Description: faker.Company(),
		}); err != nil {
			return nil, err
		}
		for range faker.Number(5, 15) {
			if _, err := a.transactions.Record(ctx, transaction.CreateParams{
				UserID:      u.ID,
				Type:        transaction.TypeExpense,
				Category:    faker.RandomString(expenseCategories),
				Amount:      decimal.NewFromFloat(faker.Float64Range(5, 400)).Round(2),
				Date:        monthStart.AddDate(0, 0, faker.Number(0, 27)),
				Description: faker.Company(),
				Tags:        []string{faker.Word()},
			}); err != nil {
				return nil, err
			}
		}
	}

	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if _, _, err := a.goals.AllocateNetSavings(ctx, u.ID, lastMonth.AddDate(0, -1, 0), lastMonth.Add(-time.Nanosecond)); err != nil {
		return nil, err
	}
	return u, nil
}
