package main

import (
	"log"
	"net/http"

	"poupa/internal/domain/user"
	httphandlers "poupa/internal/interfaces/http"
	"poupa/internal/shared/config"
	"poupa/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth(deps.DB))

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	mux.Handle("/api/users/me", protect(deps.AuthHandler.HandleMe))

	mux.Handle("/api/goals/", protect(deps.GoalHandler.HandleGoals))
	mux.Handle("/api/goals/{id}", protect(deps.GoalHandler.HandleGoalByID))
	mux.Handle("/api/goals/{id}/contributions", protect(deps.GoalHandler.HandleContribution))
	mux.Handle("/api/goals/{id}/track", protect(deps.GoalHandler.HandleTrack))
	mux.Handle("/api/goals/{id}/remaining", protect(deps.GoalHandler.HandleRemaining))
	mux.Handle("/api/goals/{id}/budget", protect(deps.GoalHandler.HandleBudgetLink))

	mux.Handle("/api/budgets/", protect(deps.BudgetHandler.HandleBudgets))
	mux.Handle("/api/budgets/{id}", protect(deps.BudgetHandler.HandleBudgetByID))

	mux.Handle("/api/transactions/", protect(deps.TransactionHandler.HandleTransactions))
	mux.Handle("/api/transactions/{id}", protect(deps.TransactionHandler.HandleTransactionByID))

	mux.Handle("/api/savings/allocate", protect(deps.SavingsHandler.HandleAllocate))
	mux.Handle("/api/savings/allocate-net", protect(deps.SavingsHandler.HandleAllocateNet))
	mux.Handle("/api/savings/net", protect(deps.SavingsHandler.HandleNetSavings))
	mux.Handle("/api/savings/total", protect(deps.SavingsHandler.HandleTotalSavings))

	mux.Handle("/api/currency/convert", protect(deps.CurrencyHandler.HandleConvert))

	mux.Handle("/api/notifications/register-device/", protect(deps.NotificationHandler.HandleRegisterDevice))
	mux.Handle("/api/notifications/preferences/", protect(deps.NotificationHandler.HandlePreferences))
	mux.Handle("/api/notifications/{id}", protect(deps.NotificationHandler.HandleNotificationByID))
	mux.Handle("/api/notifications/", protect(deps.NotificationHandler.HandleNotifications))

	// Admin routes
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.RequireRole(user.RoleAdmin)(h))
	}
	mux.Handle("/api/admin/sweep-deadlines", adminOnly(deps.AdminHandler.HandleSweepDeadlines))
	mux.Handle("/api/admin/users", adminOnly(deps.AdminHandler.HandleListUsers))

	// Apply global middleware
	var handler http.Handler = middleware.CORS(cfg.Server.AllowedHosts)(mux)
	if cfg.TLS.Enabled {
		handler = middleware.SecureCookies(handler)
		log.Println("Secure cookie flags enforced")
	}
	handler = middleware.SecureHeaders(cfg.TLS.Enabled)(handler)
	handler = middleware.Logging(middleware.Tracing(handler))

	return middleware.Telemetry(handler)
}
