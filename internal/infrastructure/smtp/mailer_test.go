package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
)

func newTestMailer(t *testing.T, send sendFunc) *Mailer {
	t.Helper()
	m, err := NewMailer("mail.example.com", 587, "", "", "no-reply@poupa.app")
	if err != nil {
		t.Fatalf("NewMailer() error = %v", err)
	}
	m.send = send
	m.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestSendMail(t *testing.T) {
	var sent *mail.Msg
	m := newTestMailer(t, func(ctx context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	})

	subject := "Meta atingida 🎉"
	body := "Parabéns! Você atingiu a meta \"Viagem\".\nContinue assim."
	if err := m.SendMail(context.Background(), "ana@example.com", subject, body); err != nil {
		t.Fatalf("SendMail() error = %v", err)
	}
	if sent == nil {
		t.Fatal("relay was not called")
	}

	rcpts, err := sent.GetRecipients()
	if err != nil {
		t.Fatalf("GetRecipients() error = %v", err)
	}
	if len(rcpts) != 1 || rcpts[0] != "ana@example.com" {
		t.Errorf("recipients = %v", rcpts)
	}

	var raw bytes.Buffer
	if _, err := sent.WriteTo(&raw); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	parsed, err := netmail.ReadMessage(&raw)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	rawSubject := parsed.Header.Get("Subject")
	if !strings.HasPrefix(strings.ToLower(rawSubject), "=?utf-8?") {
		t.Errorf("Subject header %q is not RFC 2047 encoded", rawSubject)
	}
	gotSubject, err := new(mime.WordDecoder).DecodeHeader(rawSubject)
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if gotSubject != subject {
		t.Errorf("Subject = %q, want %q", gotSubject, subject)
	}

	if from, err := parsed.Header.AddressList("From"); err != nil || len(from) != 1 || from[0].Address != "no-reply@poupa.app" {
		t.Errorf("From = %v (err %v)", from, err)
	}
	if date, err := parsed.Header.Date(); err != nil || !date.Equal(m.now()) {
		t.Errorf("Date = %v (err %v)", date, err)
	}

	if cte := parsed.Header.Get("Content-Transfer-Encoding"); !strings.EqualFold(cte, "quoted-printable") {
		t.Fatalf("Content-Transfer-Encoding = %q, want quoted-printable", cte)
	}
	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/plain" || !strings.EqualFold(params["charset"], "utf-8") {
		t.Errorf("Content-Type = %q", parsed.Header.Get("Content-Type"))
	}

	decoded, err := io.ReadAll(quotedprintable.NewReader(parsed.Body))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	gotBody := strings.ReplaceAll(strings.TrimRight(string(decoded), "\r\n"), "\r\n", "\n")
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestSendMailPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "req-1")

	m := newTestMailer(t, func(got context.Context, msg *mail.Msg) error {
		if got.Value(key{}) != "req-1" {
			t.Error("relay did not receive the caller's context")
		}
		return nil
	})
	if err := m.SendMail(ctx, "ana@example.com", "Goal Achieved", "body"); err != nil {
		t.Fatalf("SendMail() error = %v", err)
	}
}

func TestSendMailErrors(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		subject string
		sendErr error
	}{
		{"header injection in subject", "ana@example.com", "hi\r\nBcc: x@example.com", nil},
		{"header injection in address", "ana@example.com\nBcc: x", "hi", nil},
		{"malformed address", "not an address", "hi", nil},
		{"relay failure", "ana@example.com", "hi", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := newTestMailer(t, func(ctx context.Context, msg *mail.Msg) error {
				called = true
				return tt.sendErr
			})
			err := m.SendMail(context.Background(), tt.to, tt.subject, "body")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.sendErr == nil && called {
				t.Error("relay should not be contacted for a rejected message")
			}
			if tt.sendErr != nil && !errors.Is(err, tt.sendErr) {
				t.Errorf("error = %v, want wrapped %v", err, tt.sendErr)
			}
		})
	}
}

func TestSendMailCancelledContext(t *testing.T) {
	called := false
	m := newTestMailer(t, func(ctx context.Context, msg *mail.Msg) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.SendMail(ctx, "ana@example.com", "s", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("SendMail() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("relay should not be contacted after cancellation")
	}
}

func TestNewMailerRejects(t *testing.T) {
	tests := []struct {
		name string
		host string
		from string
	}{
		{"empty host", "", "no-reply@poupa.app"},
		{"bad sender", "mail.example.com", "no-reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMailer(tt.host, 587, "", "", tt.from); err == nil {
				t.Error("NewMailer() error = nil, want an error")
			}
		})
	}
}
