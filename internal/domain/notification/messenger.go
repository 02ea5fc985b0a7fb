package notification

import "context"

// Messenger defines the interface for sending push notifications.
// Implemented by the Firebase FCM client in the infrastructure layer.
type Messenger interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// Mailer delivers email notifications. Implemented by the SMTP mailer.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Directory resolves the email address of a user.
type Directory interface {
	EmailForUser(ctx context.Context, userID int64) (string, error)
}
