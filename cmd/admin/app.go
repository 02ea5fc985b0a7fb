package main

import (
	"context"
	"log"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/currency"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/notification"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/infrastructure/exchangerate"
	"poupa/internal/infrastructure/firebase"
	"poupa/internal/infrastructure/postgres"
	"poupa/internal/infrastructure/smtp"
	"poupa/internal/shared/config"
	"poupa/internal/shared/messages"
)

// app holds the services the admin commands work with.
type app struct {
	db           *postgres.DB
	users        *user.Service
	budgets      *budget.Service
	transactions *transaction.Service
	goals        *goal.Service
}

// newApp connects to the database, applies the schema and builds the services.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	texts, err := messages.Load(cfg.Notifications.MessagesPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := postgres.NewUserRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		pusher, err := firebase.NewPusher(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: push notifications disabled: %v", err)
		} else {
			messenger = pusher
		}
	}
	var mailer notification.Mailer
	if cfg.SMTP.Enabled() {
		m, err := smtp.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			log.Printf("Warning: email notifications disabled: %v", err)
		} else {
			mailer = m
		}
	}

	users := user.NewService(userRepo, cfg.Currency.Default)
	notifications := notification.NewService(notificationRepo, messenger, mailer, users)
	rates := exchangerate.NewClient(cfg.Currency.BaseURL, cfg.Currency.APIKey, cfg.Currency.CacheTTL)

	return &app{
		db:           db,
		users:        users,
		budgets:      budget.NewService(budgetRepo, cfg.Currency.Default),
		transactions: transaction.NewService(transactionRepo, cfg.Currency.Default),
		goals: goal.NewService(goal.Deps{
			Goals:     postgres.NewGoalRepository(db),
			Links:     postgres.NewLinkRepository(db),
			Budgets:   budgetRepo,
			Ledger:    transactionRepo,
			Notifier:  notifications,
			Converter: currency.NewConverter(rates),
			Profiles:  users,
			Messages:  texts,
		}),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
