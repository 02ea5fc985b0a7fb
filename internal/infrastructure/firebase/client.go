package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"poupa/internal/domain/notification"
)

const fcmBatchLimit = 500

// TokenDeactivator marks a device token as inactive after FCM rejects it.
type TokenDeactivator func(ctx context.Context, token string) error

// multicastSender is the slice of *messaging.Client the pusher uses.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Pusher delivers goal notifications to registered devices through Firebase
// Cloud Messaging.
type Pusher struct {
	sender      multicastSender
	deactivator TokenDeactivator
}

var _ notification.Messenger = (*Pusher)(nil)

// NewPusher initializes a Firebase app from a service-account file.
// deactivator may be nil.
func NewPusher(ctx context.Context, credentialsFile string, deactivator TokenDeactivator) (*Pusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Pusher{sender: msgClient, deactivator: deactivator}, nil
}

// SendMulticast pushes one notification to every token, batching by the FCM
// request limit. Rejected tokens are deactivated.
func (p *Pusher) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	var sent, failed int
	for _, batch := range chunkTokens(tokens, fcmBatchLimit) {
		msg := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		}

		resp, err := p.sender.SendEachForMulticast(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send FCM multicast: %w", err)
		}

		sent += resp.SuccessCount
		failed += resp.FailureCount
		if resp.FailureCount > 0 {
			p.handleFailures(ctx, batch, resp)
		}
	}

	log.Printf("FCM push %q: %d delivered, %d failed", title, sent, failed)
	return nil
}

func (p *Pusher) handleFailures(ctx context.Context, tokens []string, resp *messaging.BatchResponse) {
	for i, r := range resp.Responses {
		if r.Error == nil || i >= len(tokens) {
			continue
		}
		if !isStaleToken(r.Error) {
			log.Printf("FCM send error for device %d: %v", i, r.Error)
			continue
		}
		if p.deactivator == nil {
			continue
		}
		if err := p.deactivator(ctx, tokens[i]); err != nil {
			log.Printf("Failed to deactivate FCM token: %v", err)
		}
	}
}

var isStaleToken = func(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(tokens); i += size {
		end := min(i+size, len(tokens))
		chunks = append(chunks, tokens[i:end])
	}
	return chunks
}
