package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/currency"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/notification"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/shared/middleware"
)

const maxBodySize = 1 << 20 // 1 MiB

// dateLayout is accepted for query parameters and request dates alongside RFC 3339.
const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var (
	badRequestErrors = []error{
		goal.ErrInvalidArgument,
		budget.ErrCategoryRequired, budget.ErrCategoryTooLong, budget.ErrNegativeLimit,
		budget.ErrInvalidPeriod, budget.ErrStartDateRequired,
		transaction.ErrInvalidType, transaction.ErrCategoryRequired, transaction.ErrInvalidAmount,
		transaction.ErrDateRequired, transaction.ErrTooManyTags, transaction.ErrTagTooLong,
		transaction.ErrDescriptionTooLong,
		currency.ErrInvalidCode, currency.ErrUnsupportedCurrency, currency.ErrInvalidRate,
		user.ErrInvalidEmail, user.ErrPasswordTooShort, user.ErrPasswordTooLong, user.ErrInvalidRole,
		notification.ErrInvalidDeviceType, notification.ErrInvalidToken,
	}
	notFoundErrors = []error{
		goal.ErrGoalNotFound, budget.ErrBudgetNotFound, transaction.ErrTransactionNotFound,
		user.ErrUserNotFound, notification.ErrNotificationNotFound,
	}
	forbiddenErrors = []error{
		goal.ErrForbidden, budget.ErrForbidden, transaction.ErrForbidden,
	}
	conflictErrors = []error{
		goal.ErrVersionConflict, user.ErrEmailTaken,
	}
)

func statusFor(err error) int {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredential):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError maps domain errors to a status. Unmapped errors are logged
// with the action and reported as a generic 500.
func writeError(w http.ResponseWriter, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error %s: %v", action, err)
		writeJSON(w, status, ErrorResponse{Error: "Failed " + action})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func isAdmin(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == user.RoleAdmin
}

// canAccess reports whether the caller may act on a resource owned by ownerID.
// Admins may act on any resource.
func canAccess(r *http.Request, ownerID int64) bool {
	userID, ok := middleware.UserIDFromContext(r.Context())
	return ok && (userID == ownerID || isAdmin(r))
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, value)
}
