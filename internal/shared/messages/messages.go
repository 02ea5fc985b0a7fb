package messages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"
)

// MessageText is a notification title plus a body format string.
type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Format returns the body with args applied.
func (m MessageText) Format(args ...any) string {
	return fmt.Sprintf(m.Body, args...)
}

type Messages struct {
	GoalAchieved     MessageText `json:"goal_achieved"`
	GoalNearDeadline MessageText `json:"goal_near_deadline"`
	BudgetLinked     MessageText `json:"budget_linked"`
	BudgetUnlinked   MessageText `json:"budget_unlinked"`
}

// Defaults returns the compiled-in texts used when no file overrides them.
func Defaults() *Messages {
	return &Messages{
		GoalAchieved: MessageText{
			Title: "Goal Achieved",
			Body:  "Congratulations! You reached your goal %q.",
		},
		GoalNearDeadline: MessageText{
			Title: "Goal Nearing Deadline",
			Body:  "Your goal %q is due in %d day(s).",
		},
		BudgetLinked: MessageText{
			Title: "Budget Linked",
			Body:  "Budget %q is now linked to your goal %q.",
		},
		BudgetUnlinked: MessageText{
			Title: "Budget Unlinked",
			Body:  "Your goal %q no longer has a linked budget.",
		},
	}
}

var (
	loaded   *Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file and caches the result.
// A missing file yields the defaults. Safe to call from multiple goroutines.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			loaded = Defaults()
			return
		}
		if err != nil {
			loadErr = fmt.Errorf("failed to read messages file: %w", err)
			return
		}
		loaded, loadErr = Parse(data)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

// Parse decodes data over the defaults, so a file may override only some texts.
func Parse(data []byte) (*Messages, error) {
	m := Defaults()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	for name, text := range map[string]MessageText{
		"goal_achieved":      m.GoalAchieved,
		"goal_near_deadline": m.GoalNearDeadline,
		"budget_linked":      m.BudgetLinked,
		"budget_unlinked":    m.BudgetUnlinked,
	} {
		if text.Title == "" || text.Body == "" {
			return nil, fmt.Errorf("message %q needs both title and body", name)
		}
	}
	return m, nil
}
