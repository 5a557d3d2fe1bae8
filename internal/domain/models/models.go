package models

import (
	"strings"
	"time"

	"aura/internal/domain/errors"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// ParseStatus accepts the canonical values plus the "inprogress" and
// "in_progress" spellings used by the board client.
func ParseStatus(s string) (Status, bool) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "todo":
		return StatusTodo, true
	case "in-progress", "inprogress", "in_progress":
		return StatusInProgress, true
	case "review":
		return StatusReview, true
	case "done":
		return StatusDone, true
	}
	return "", false
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.ErrInvalidDueDate
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch is a partial update: nil fields are left unchanged.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Status       *Status
	DueDate      *time.Time
	ClearDueDate bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueDate == nil && !p.ClearDueDate
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string  `json:"status" validate:"omitempty,oneof=todo in-progress inprogress in_progress review done"`
	DueDate     *string `json:"dueDate"`
}

// ToTask builds a new task owned by userID, filling in the defaults.
func (r CreateTaskRequest) ToTask(userID string) (*Task, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, errors.ErrInvalidTitle
	}
	task := &Task{
		UserID:      userID,
		Title:       title,
		Description: r.Description,
		Priority:    PriorityMedium,
		Status:      StatusTodo,
	}
	if r.Priority != "" {
		p, ok := ParsePriority(r.Priority)
		if !ok {
			return nil, errors.ErrInvalidPriority
		}
		task.Priority = p
	}
	if r.Status != "" {
		s, ok := ParseStatus(r.Status)
		if !ok {
			return nil, errors.ErrInvalidStatus
		}
		task.Status = s
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		d, err := ParseDueDate(*r.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &d
	}
	return task, nil
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in-progress inprogress in_progress review done"`
	DueDate     *string `json:"dueDate"`
}

// ToPatch converts the request; an empty dueDate string clears the due date.
func (r UpdateTaskRequest) ToPatch() (TaskPatch, error) {
	var patch TaskPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return TaskPatch{}, errors.ErrInvalidTitle
		}
		patch.Title = &title
	}
	patch.Description = r.Description
	if r.Priority != nil {
		p, ok := ParsePriority(*r.Priority)
		if !ok {
			return TaskPatch{}, errors.ErrInvalidPriority
		}
		patch.Priority = &p
	}
	if r.Status != nil {
		s, ok := ParseStatus(*r.Status)
		if !ok {
			return TaskPatch{}, errors.ErrInvalidStatus
		}
		patch.Status = &s
	}
	if r.DueDate != nil {
		if strings.TrimSpace(*r.DueDate) == "" {
			patch.ClearDueDate = true
		} else {
			d, err := ParseDueDate(*r.DueDate)
			if err != nil {
				return TaskPatch{}, err
			}
			patch.DueDate = &d
		}
	}
	return patch, nil
}
