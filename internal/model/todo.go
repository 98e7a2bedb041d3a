package model

import "time"

// TimestampLayout is the ISO-8601 form used for createdAt. Fixed width with
// millisecond precision, so lexical order on the index equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a createdAt value produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// TodoItem is one to-do row, keyed by (UserID, TodoID).
type TodoItem struct {
	UserID        string `json:"userId" dynamodbav:"userId"`
	TodoID        string `json:"todoId" dynamodbav:"todoId"`
	Name          string `json:"name" dynamodbav:"name"`
	CreatedAt     string `json:"createdAt" dynamodbav:"createdAt"`
	DueDate       string `json:"dueDate" dynamodbav:"dueDate"`
	Done          bool   `json:"done" dynamodbav:"done"`
	AttachmentURL string `json:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty"`
}

// TodoUpdate holds the mutable fields of a TodoItem.
type TodoUpdate struct {
	Name    string
	DueDate string
	Done    bool
}

type CreateTodoRequest struct {
	Name    string `json:"name" validate:"required"`
	DueDate string `json:"dueDate" validate:"required"`
}

type UpdateTodoRequest struct {
	Name    string `json:"name" validate:"required"`
	DueDate string `json:"dueDate" validate:"required"`
	Done    *bool  `json:"done" validate:"required"`
}
