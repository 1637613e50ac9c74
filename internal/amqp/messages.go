package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// ChangeAction names what happened to an expense.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

// ExpenseChangeMessage announces a committed change to the expenses table.
// Expense carries the full row for created and updated; it is nil for
// deleted.
type ExpenseChangeMessage struct {
	Action    ChangeAction  `json:"action"`
	ID        int64         `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseChangeMessage stamps a change message with the current time.
func NewExpenseChangeMessage(action ChangeAction, id int64, e *core.Expense) *ExpenseChangeMessage {
	return &ExpenseChangeMessage{
		Action:    action,
		ID:        id,
		Expense:   e,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON decodes and checks a message body.
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated:
		if msg.Expense == nil {
			return nil, fmt.Errorf("%s message for id %d has no expense", msg.Action, msg.ID)
		}
	case ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
