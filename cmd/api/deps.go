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
	httphandlers "poupa/internal/interfaces/http"
	"poupa/internal/shared/auth"
	"poupa/internal/shared/config"
	"poupa/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler         *httphandlers.AuthHandler
	GoalHandler         *httphandlers.GoalHandler
	BudgetHandler       *httphandlers.BudgetHandler
	TransactionHandler  *httphandlers.TransactionHandler
	SavingsHandler      *httphandlers.SavingsHandler
	CurrencyHandler     *httphandlers.CurrencyHandler
	NotificationHandler *httphandlers.NotificationHandler
	AdminHandler        *httphandlers.AdminHandler

	// Auth
	JWT *auth.JWT

	// Goal engine (for scheduler and savings listener)
	GoalService *goal.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
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

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	goalRepo := postgres.NewGoalRepository(db)
	linkRepo := postgres.NewLinkRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Exchange rates
	rates := exchangerate.NewClient(cfg.Currency.BaseURL, cfg.Currency.APIKey, cfg.Currency.CacheTTL)
	converter := currency.NewConverter(rates)

	// Delivery channels are optional; without them notifications are only stored.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		pusher, err := firebase.NewPusher(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: push notifications disabled: %v", err)
		} else {
			messenger = pusher
			log.Println("Firebase Cloud Messaging enabled")
		}
	}
	var mailer notification.Mailer
	if cfg.SMTP.Enabled() {
		m, err := smtp.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			log.Printf("Warning: email notifications disabled: %v", err)
		} else {
			mailer = m
			log.Printf("Email notifications enabled via %s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
		}
	}

	// Domain services
	userService := user.NewService(userRepo, cfg.Currency.Default)
	budgetService := budget.NewService(budgetRepo, cfg.Currency.Default)
	transactionService := transaction.NewService(transactionRepo, cfg.Currency.Default)
	notificationService := notification.NewService(notificationRepo, messenger, mailer, userService)
	goalService := goal.NewService(goal.Deps{
		Goals:     goalRepo,
		Links:     linkRepo,
		Budgets:   budgetRepo,
		Ledger:    transactionRepo,
		Notifier:  notificationService,
		Converter: converter,
		Profiles:  userService,
		Messages:  texts,
	})

	jwt := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	return &Dependencies{
		DB:                  db,
		AuthHandler:         httphandlers.NewAuthHandler(userService, jwt, cfg.JWT.TTL),
		GoalHandler:         httphandlers.NewGoalHandler(goalService, budgetService),
		BudgetHandler:       httphandlers.NewBudgetHandler(budgetService, goalService),
		TransactionHandler:  httphandlers.NewTransactionHandler(transactionService, goalService),
		SavingsHandler:      httphandlers.NewSavingsHandler(goalService),
		CurrencyHandler:     httphandlers.NewCurrencyHandler(converter),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		AdminHandler:        httphandlers.NewAdminHandler(userService, goalService),
		JWT:                 jwt,
		GoalService:         goalService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
