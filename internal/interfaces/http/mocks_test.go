package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/notification"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/shared/middleware"
)

// newRequest builds a request as the auth middleware would hand it over.
// userID 0 leaves the request anonymous.
func newRequest(method, target string, body any, userID int64, role string, pathValues map[string]string) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, target, &buf)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if userID != 0 {
		ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
		ctx = context.WithValue(ctx, middleware.RoleKey, role)
		req = req.WithContext(ctx)
	}
	return req
}

func ptr[T any](v T) *T { return &v }

// MockGoalService implements GoalService, SavingsService, GoalOwnership and DeadlineSweeper
type MockGoalService struct {
	SetGoalFunc         func(ctx context.Context, params goal.CreateParams) (*goal.Goal, error)
	GetGoalFunc         func(ctx context.Context, id string) (*goal.Goal, error)
	ListFunc            func(ctx context.Context, userID int64, status goal.Status) ([]*goal.Goal, error)
	UpdateGoalFunc      func(ctx context.Context, id string, params goal.UpdateParams) (*goal.Goal, error)
	DeleteGoalFunc      func(ctx context.Context, id string) (bool, error)
	AddContributionFunc func(ctx context.Context, id string, amount decimal.Decimal) (*goal.Goal, error)
	TrackFunc           func(ctx context.Context, id string) (*goal.Goal, error)
	RemainingFunc       func(ctx context.Context, id string) (decimal.Decimal, error)
	LinkFunc            func(ctx context.Context, goalID, budgetID string) (*goal.Goal, error)
	UnlinkFunc          func(ctx context.Context, goalID string) (*goal.Goal, error)
	IsOwnerFunc         func(ctx context.Context, goalID string, userID int64) (bool, error)
	AllocateFunc        func(ctx context.Context, userID int64, amount decimal.Decimal) ([]goal.Allocation, error)
	NetSavingsFunc      func(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, error)
	AllocateNetFunc     func(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, []goal.Allocation, error)
	TotalSavingsFunc    func(ctx context.Context, userID int64) (decimal.Decimal, error)
	CheckAndNotifyFunc  func(ctx context.Context) (int, error)

	tracked []string
}

func (m *MockGoalService) SetGoal(ctx context.Context, params goal.CreateParams) (*goal.Goal, error) {
	if m.SetGoalFunc != nil {
		return m.SetGoalFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockGoalService) GetGoal(ctx context.Context, id string) (*goal.Goal, error) {
	if m.GetGoalFunc != nil {
		return m.GetGoalFunc(ctx, id)
	}
	return nil, goal.ErrGoalNotFound
}

func (m *MockGoalService) list(ctx context.Context, userID int64, status goal.Status) ([]*goal.Goal, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, status)
	}
	return nil, nil
}

func (m *MockGoalService) GetGoalsByUser(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	return m.list(ctx, userID, goal.StatusAll)
}

func (m *MockGoalService) GetActiveGoals(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	return m.list(ctx, userID, goal.StatusActive)
}

func (m *MockGoalService) GetCompletedGoals(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	return m.list(ctx, userID, goal.StatusCompleted)
}

func (m *MockGoalService) GetOverdueGoals(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	return m.list(ctx, userID, goal.StatusOverdue)
}

func (m *MockGoalService) UpdateGoal(ctx context.Context, id string, params goal.UpdateParams) (*goal.Goal, error) {
	if m.UpdateGoalFunc != nil {
		return m.UpdateGoalFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *MockGoalService) DeleteGoal(ctx context.Context, id string) (bool, error) {
	if m.DeleteGoalFunc != nil {
		return m.DeleteGoalFunc(ctx, id)
	}
	return true, nil
}

func (m *MockGoalService) AddManualContribution(ctx context.Context, id string, amount decimal.Decimal) (*goal.Goal, error) {
	if m.AddContributionFunc != nil {
		return m.AddContributionFunc(ctx, id, amount)
	}
	return nil, nil
}

func (m *MockGoalService) TrackGoalProgress(ctx context.Context, id string) (*goal.Goal, error) {
	m.tracked = append(m.tracked, id)
	if m.TrackFunc != nil {
		return m.TrackFunc(ctx, id)
	}
	return &goal.Goal{ID: id}, nil
}

func (m *MockGoalService) CalculateRemainingAmountForGoal(ctx context.Context, id string) (decimal.Decimal, error) {
	if m.RemainingFunc != nil {
		return m.RemainingFunc(ctx, id)
	}
	return decimal.Zero, nil
}

func (m *MockGoalService) LinkBudgetToGoal(ctx context.Context, goalID, budgetID string) (*goal.Goal, error) {
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, goalID, budgetID)
	}
	return &goal.Goal{ID: goalID, BudgetID: &budgetID}, nil
}

func (m *MockGoalService) UnlinkBudgetFromGoal(ctx context.Context, goalID string) (*goal.Goal, error) {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, goalID)
	}
	return &goal.Goal{ID: goalID}, nil
}

func (m *MockGoalService) IsOwner(ctx context.Context, goalID string, userID int64) (bool, error) {
	if m.IsOwnerFunc != nil {
		return m.IsOwnerFunc(ctx, goalID, userID)
	}
	return true, nil
}

func (m *MockGoalService) AllocateSavings(ctx context.Context, userID int64, amount decimal.Decimal) ([]goal.Allocation, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, userID, amount)
	}
	return nil, nil
}

func (m *MockGoalService) CalculateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, error) {
	if m.NetSavingsFunc != nil {
		return m.NetSavingsFunc(ctx, userID, from, to)
	}
	return &goal.NetSavings{From: from, To: to}, nil
}

func (m *MockGoalService) AllocateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, []goal.Allocation, error) {
	if m.AllocateNetFunc != nil {
		return m.AllocateNetFunc(ctx, userID, from, to)
	}
	return &goal.NetSavings{From: from, To: to}, nil, nil
}

func (m *MockGoalService) CalculateTotalSavings(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if m.TotalSavingsFunc != nil {
		return m.TotalSavingsFunc(ctx, userID)
	}
	return decimal.Zero, nil
}

func (m *MockGoalService) CheckAndNotifyNearOverdueGoals(ctx context.Context) (int, error) {
	if m.CheckAndNotifyFunc != nil {
		return m.CheckAndNotifyFunc(ctx)
	}
	return 0, nil
}

// MockBudgetService implements BudgetService
type MockBudgetService struct {
	CreateFunc func(ctx context.Context, params budget.CreateParams) (*budget.Budget, error)
	GetFunc    func(ctx context.Context, id string) (*budget.Budget, error)
	ListFunc   func(ctx context.Context, userID int64) ([]*budget.Budget, error)
	UpdateFunc func(ctx context.Context, id string, params budget.UpdateParams) (*budget.Budget, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockBudgetService) CreateBudget(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockBudgetService) GetBudget(ctx context.Context, id string) (*budget.Budget, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, budget.ErrBudgetNotFound
}

func (m *MockBudgetService) ListBudgets(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBudgetService) UpdateBudget(ctx context.Context, id string, params budget.UpdateParams) (*budget.Budget, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *MockBudgetService) DeleteBudget(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTransactionService implements TransactionService
type MockTransactionService struct {
	RecordFunc func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	GetFunc    func(ctx context.Context, id string) (*transaction.Transaction, error)
	ListFunc   func(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockTransactionService) Record(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, params)
	}
	return &transaction.Transaction{ID: "tx-1", UserID: params.UserID, GoalID: params.GoalID}, nil
}

func (m *MockTransactionService) Get(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionService) List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockTransactionService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockUserService implements UserService
type MockUserService struct {
	RegisterFunc     func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	AuthenticateFunc func(ctx context.Context, email, password string) (*user.User, error)
	GetUserFunc      func(ctx context.Context, id int64) (*user.User, error)
	ListUsersFunc    func(ctx context.Context) ([]*user.User, error)
}

func (m *MockUserService) Register(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return nil, user.ErrInvalidCredential
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

// MockNotificationService implements NotificationService
type MockNotificationService struct {
	ListFunc           func(ctx context.Context, userID int64, page, perPage int) ([]*notification.Notification, int, error)
	MarkAsReadFunc     func(ctx context.Context, notificationID string, userID int64) error
	GetPrefsFunc       func(ctx context.Context, userID int64) (*notification.Preference, error)
	UpdatePrefsFunc    func(ctx context.Context, userID int64, params notification.UpdatePreferenceParams) (*notification.Preference, error)
	RegisterDeviceFunc func(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error)
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, userID int64, page, perPage int) ([]*notification.Notification, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, page, perPage)
	}
	return nil, 0, nil
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, notificationID string, userID int64) error {
	if m.MarkAsReadFunc != nil {
		return m.MarkAsReadFunc(ctx, notificationID, userID)
	}
	return nil
}

func (m *MockNotificationService) GetPreferences(ctx context.Context, userID int64) (*notification.Preference, error) {
	if m.GetPrefsFunc != nil {
		return m.GetPrefsFunc(ctx, userID)
	}
	return &notification.Preference{UserID: userID, PushEnabled: true, EmailEnabled: true}, nil
}

func (m *MockNotificationService) UpdatePreferences(ctx context.Context, userID int64, params notification.UpdatePreferenceParams) (*notification.Preference, error) {
	if m.UpdatePrefsFunc != nil {
		return m.UpdatePrefsFunc(ctx, userID, params)
	}
	return nil, nil
}

func (m *MockNotificationService) RegisterDevice(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	if m.RegisterDeviceFunc != nil {
		return m.RegisterDeviceFunc(ctx, params)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &notification.DeviceToken{Token: params.Token, DeviceType: params.DeviceType}, nil
}

// MockConverter implements CurrencyConverter
type MockConverter struct {
	ConvertFunc func(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

func (m *MockConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, amount, from, to)
	}
	return amount, nil
}
