package listener

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"poupa/internal/domain/goal"
)

const (
	channelName       = "goal_savings_changed"
	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
	trackTimeout      = 30 * time.Second
)

var errMissingGoalID = errors.New("savings change without goal_id")

// SavingsChange is the payload published by the notify_goal_savings trigger.
type SavingsChange struct {
	GoalID        string `json:"goal_id"`
	TransactionID string `json:"transaction_id"`
	Op            string `json:"op"`
}

// ProgressTracker refreshes the progress of one goal.
type ProgressTracker interface {
	TrackGoalProgress(ctx context.Context, goalID string) (*goal.Goal, error)
}

// SavingsListener refreshes goal progress when Savings transactions are
// recorded or deleted outside the allocation flow.
type SavingsListener struct {
	connStr    string
	tracker    ProgressTracker
	shutdownCh chan struct{}
	done       chan struct{}
	inflight   sync.WaitGroup
}

func NewSavingsListener(connStr string, tracker ProgressTracker) *SavingsListener {
	return &SavingsListener{
		connStr:    connStr,
		tracker:    tracker,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins listening for notifications in a background goroutine
func (l *SavingsListener) Start(ctx context.Context) {
	go l.listen(ctx)
	log.Println("Savings listener started")
}

// Stop closes the connection and waits for in-flight refreshes.
func (l *SavingsListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	l.inflight.Wait()
	log.Println("Savings listener stopped")
}

func (l *SavingsListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			log.Println("Savings listener: reconnecting to PostgreSQL...")
		}
	}
}

func (l *SavingsListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Println("Savings listener: connected")
		case pq.ListenerEventDisconnected:
			log.Printf("Savings listener: disconnected: %v", err)
		case pq.ListenerEventReconnected:
			log.Println("Savings listener: reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Printf("Savings listener: connection attempt failed: %v", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(channelName); err != nil {
		log.Printf("Savings listener: failed to listen on %s: %v", channelName, err)
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// Connection lost; pq reconnects and we resubscribe.
				return
			}
			l.handle(n.Extra)
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				log.Printf("Savings listener: ping failed: %v", err)
			}
		}
	}
}

func (l *SavingsListener) handle(payload string) {
	change, err := ParseSavingsChange(payload)
	if err != nil {
		log.Printf("Savings listener: %v", err)
		return
	}

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		// Detached from the listener context so shutdown does not cut a refresh short.
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()

		if _, err := l.tracker.TrackGoalProgress(ctx, change.GoalID); err != nil {
			log.Printf("Savings listener: failed to refresh goal %s after %s of %s: %v",
				change.GoalID, change.Op, change.TransactionID, err)
		}
	}()
}

// ParseSavingsChange decodes a trigger payload.
func ParseSavingsChange(payload string) (SavingsChange, error) {
	var change SavingsChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return change, err
	}
	if change.GoalID == "" {
		return change, errMissingGoalID
	}
	return change, nil
}
