package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"poupa/internal/shared/config"
)

const usage = `Poupa Admin CLI - Management commands for the Poupa API

Usage:
  admin <command> [options]

Commands:
  migrate            Apply the database schema
  sweep-deadlines    Send near-deadline warnings for active goals
  track-goal         Recompute the progress of one goal
  allocate           Split an amount over a user's active goals
  seed-demo          Create demo users with goals, budgets and ledger entries

Examples:
  # Warn every user with active goals
  admin sweep-deadlines --all --workers=8

  # Warn specific users
  admin sweep-deadlines --user-id=1,2,3

  # Refresh a goal after a manual data fix
  admin track-goal --goal-id=6f1c2c0e-...

  # Allocate 500 over user 1's goals
  admin allocate --user-id=1 --amount=500

  # Seed 10 demo users
  admin seed-demo --users=10 --seed=42
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "sweep-deadlines":
		runSweepDeadlines(os.Args[2:])
	case "track-goal":
		runTrackGoal(os.Args[2:])
	case "allocate":
		runAllocate(os.Args[2:])
	case "seed-demo":
		runSeedDemo(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage + "\n")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func parseTimeout(s string) time.Duration {
	timeout, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}
	return timeout
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "2m", "Timeout for the operation")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout(*timeoutStr))
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	log.Println("Migration complete")
}

func runSweepDeadlines(args []string) {
	fs := flag.NewFlagSet("sweep-deadlines", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to sweep (comma-separated for multiple)")
	allUsers := fs.Bool("all", false, "Sweep every user with active goals")
	workers := fs.Int("workers", 4, "Number of concurrent workers")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin sweep-deadlines [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *userIDStr == "" && !*allUsers {
		fmt.Println("Error: must specify --user-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout(*timeoutStr))
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	var userIDs []int64
	if *allUsers {
		userIDs, err = app.goals.ActiveGoalOwners(ctx)
		if err != nil {
			log.Fatalf("Failed to list goal owners: %v", err)
		}
		log.Printf("Found %d users with active goals", len(userIDs))
	} else {
		userIDs = parseUserIDs(*userIDStr)
	}

	if len(userIDs) == 0 {
		log.Println("No users to process")
		return
	}

	log.Printf("Starting deadline sweep for %d user(s) with %d workers", len(userIDs), *workers)
	startTime := time.Now()

	results := make([]int, len(userIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*workers, 1))
	for i, uid := range userIDs {
		g.Go(func() error {
			notified, err := app.goals.CheckAndNotifyNearOverdueGoalsForUser(gctx, uid)
			if err != nil {
				return fmt.Errorf("user %d: %w", uid, err)
			}
			results[i] = notified
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Deadline sweep failed: %v", err)
	}

	total := 0
	for i, uid := range userIDs {
		fmt.Printf("  User %d: %d goal(s) notified\n", uid, results[i])
		total += results[i]
	}
	log.Printf("Deadline sweep completed in %v: %d notification(s)", time.Since(startTime), total)
}

func runTrackGoal(args []string) {
	fs := flag.NewFlagSet("track-goal", flag.ExitOnError)
	goalID := fs.String("goal-id", "", "Goal ID to refresh")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *goalID == "" {
		fmt.Println("Error: --goal-id is required")
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	g, err := app.goals.TrackGoalProgress(ctx, *goalID)
	if err != nil {
		log.Fatalf("Failed to track goal: %v", err)
	}
	fmt.Printf("Goal %s (%s)\n", g.ID, g.Name)
	fmt.Printf("  Current:  %s / %s\n", g.CurrentAmount.StringFixed(2), g.TargetAmount.StringFixed(2))
	fmt.Printf("  Progress: %s%%\n", g.ProgressPercentage.StringFixed(2))
}

func runAllocate(args []string) {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User whose goals receive the amount")
	amountStr := fs.String("amount", "", "Amount to split, in the user's base currency")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	amount, err := decimal.NewFromString(*amountStr)
	if *userID <= 0 || err != nil {
		fmt.Println("Error: --user-id and a numeric --amount are required")
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	allocations, err := app.goals.AllocateSavings(ctx, *userID, amount)
	if err != nil {
		log.Fatalf("Allocation failed: %v", err)
	}
	if len(allocations) == 0 {
		fmt.Println("User has no active goals; nothing allocated")
		return
	}
	for _, a := range allocations {
		fmt.Printf("  %-30s %12s %s\n", a.GoalName, a.Amount.StringFixed(2), a.CurrencyCode)
	}
}

func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("Invalid user ID '%s': %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids
}
