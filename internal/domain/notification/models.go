package notification

import (
	"errors"
	"time"
)

// Notification delivery channels
const (
	TypeInApp = "in_app"
	TypeEmail = "email"
)

var validDeviceTypes = map[string]struct{}{
	"ios":     {},
	"android": {},
}

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPreferencesNotFound  = errors.New("notification preferences not found")
	ErrInvalidType          = errors.New("notification type must be 'in_app' or 'email'")
	ErrInvalidDeviceType    = errors.New("device type must be 'ios' or 'android'")
	ErrInvalidToken         = errors.New("device token is required")
	ErrNoEmailAddress       = errors.New("user has no email address")
)

// DeviceToken represents a registered FCM device token
type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"userId"`
	Token      string    `json:"token"`
	DeviceType string    `json:"deviceType"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsed   time.Time `json:"lastUsed"`
}

// Preference holds the per-user channel toggles. In-app records are always
// stored; PushEnabled only controls delivery to devices.
type Preference struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"-"`
	PushEnabled  bool      `json:"pushEnabled"`
	EmailEnabled bool      `json:"emailEnabled"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Notification is write-once apart from the Read flag.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateDeviceTokenParams contains parameters for registering a device
type CreateDeviceTokenParams struct {
	UserID     int64
	Token      string
	DeviceType string
}

func (p CreateDeviceTokenParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Token == "" {
		return ErrInvalidToken
	}
	if _, ok := validDeviceTypes[p.DeviceType]; !ok {
		return ErrInvalidDeviceType
	}
	return nil
}

type UpdatePreferenceParams struct {
	PushEnabled  *bool
	EmailEnabled *bool
}

type CreateNotificationParams struct {
	UserID  int64
	Title   string
	Message string
	Type    string
	Email   *string
}

func (p CreateNotificationParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Title == "" {
		return errors.New("notification title is required")
	}
	if p.Message == "" {
		return errors.New("notification message is required")
	}
	switch p.Type {
	case TypeInApp:
	case TypeEmail:
		if p.Email == nil || *p.Email == "" {
			return ErrNoEmailAddress
		}
	default:
		return ErrInvalidType
	}
	return nil
}

func defaultPreference(userID int64) *Preference {
	return &Preference{UserID: userID, PushEnabled: true, EmailEnabled: true}
}
