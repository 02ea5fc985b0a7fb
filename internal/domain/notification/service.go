package notification

import (
	"context"
	"errors"
	"log"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
	mailer    Mailer
	directory Directory
}

// NewService creates a new notification service. messenger and mailer may be
// nil, in which case the corresponding channel only stores its record.
func NewService(repo Repository, messenger Messenger, mailer Mailer, directory Directory) *Service {
	return &Service{repo: repo, messenger: messenger, mailer: mailer, directory: directory}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertDeviceToken(ctx, params)
}

// GetPreferences returns the channel preferences for a user.
// Users without a stored row get everything enabled.
func (s *Service) GetPreferences(ctx context.Context, userID int64) (*Preference, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}

	prefs, err := s.repo.GetPreferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return defaultPreference(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *Service) UpdatePreferences(ctx context.Context, userID int64, params UpdatePreferenceParams) (*Preference, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.UpsertPreferences(ctx, userID, params)
}

// ListNotifications returns paginated notifications for a user, newest first
func (s *Service) ListNotifications(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
	if userID <= 0 {
		return nil, 0, errors.New("valid user ID is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkAsRead flips the read flag of a notification owned by userID.
func (s *Service) MarkAsRead(ctx context.Context, notificationID string, userID int64) error {
	if notificationID == "" {
		return errors.New("notification ID is required")
	}
	if userID <= 0 {
		return errors.New("valid user ID is required")
	}
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

// Send stores an in-app notification and pushes it to the user's active
// devices when push is enabled. Push failures are logged only.
func (s *Service) Send(ctx context.Context, userID int64, title, message string) error {
	params := CreateNotificationParams{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    TypeInApp,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.Create(ctx, params); err != nil {
		return err
	}

	if s.messenger == nil {
		return nil
	}

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		log.Printf("Error loading notification preferences for user %d: %v", userID, err)
		return nil
	}
	if !prefs.PushEnabled {
		return nil
	}

	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		log.Printf("Error loading device tokens for user %d: %v", userID, err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}
	if err := s.messenger.SendMulticast(ctx, tokenStrings, title, message, map[string]string{"route": "goals"}); err != nil {
		log.Printf("Error sending push notification to user %d: %v", userID, err)
	}
	return nil
}

// SendEmail records and mails a notification to the user's address.
// Users who disabled email are skipped without error.
func (s *Service) SendEmail(ctx context.Context, userID int64, title, message string) error {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.EmailEnabled {
		log.Printf("Email notification skipped for user %d: email disabled", userID)
		return nil
	}

	if s.directory == nil {
		return ErrNoEmailAddress
	}
	address, err := s.directory.EmailForUser(ctx, userID)
	if err != nil {
		return err
	}

	params := CreateNotificationParams{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    TypeEmail,
		Email:   &address,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.Create(ctx, params); err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.SendMail(ctx, address, title, message); err != nil {
		log.Printf("Error mailing notification to user %d: %v", userID, err)
	}
	return nil
}
