package models

import (
	"testing"
	"time"

	"aura/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  struct {
			status Status
			ok     bool
		}
	}{
		{name: "canonical in-progress", input: "in-progress", want: struct {
			status Status
			ok     bool
		}{StatusInProgress, true}},
		{name: "board client spelling", input: "inprogress", want: struct {
			status Status
			ok     bool
		}{StatusInProgress, true}},
		{name: "upper case done", input: " DONE ", want: struct {
			status Status
			ok     bool
		}{StatusDone, true}},
		{name: "unknown status", input: "archived", want: struct {
			status Status
			ok     bool
		}{"", false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := ParseStatus(tt.input)
			assert.Equal(t, tt.want.ok, ok)
			assert.Equal(t, tt.want.status, status)
		})
	}
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2026-10-17T09:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC), d)

	d, err = ParseDueDate("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDueDate("next tuesday")
	assert.ErrorIs(t, err, errors.ErrInvalidDueDate)
}

func TestCreateTaskRequestToTask(t *testing.T) {
	tests := []struct {
		name    string
		request CreateTaskRequest
		want    struct {
			err      error
			priority Priority
			status   Status
			hasDue   bool
		}
	}{
		{
			name:    "defaults applied",
			request: CreateTaskRequest{Title: "Buy milk"},
			want: struct {
				err      error
				priority Priority
				status   Status
				hasDue   bool
			}{nil, PriorityMedium, StatusTodo, false},
		},
		{
			name:    "explicit fields",
			request: CreateTaskRequest{Title: "Ship it", Priority: "high", Status: "inprogress", DueDate: strPtr("2026-11-01")},
			want: struct {
				err      error
				priority Priority
				status   Status
				hasDue   bool
			}{nil, PriorityHigh, StatusInProgress, true},
		},
		{
			name:    "blank title",
			request: CreateTaskRequest{Title: "   "},
			want: struct {
				err      error
				priority Priority
				status   Status
				hasDue   bool
			}{errors.ErrInvalidTitle, "", "", false},
		},
		{
			name:    "bad due date",
			request: CreateTaskRequest{Title: "x", DueDate: strPtr("soon")},
			want: struct {
				err      error
				priority Priority
				status   Status
				hasDue   bool
			}{errors.ErrInvalidDueDate, "", "", false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := tt.request.ToTask("user-1")
			if tt.want.err != nil {
				assert.ErrorIs(t, err, tt.want.err)
				assert.Nil(t, task)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", task.UserID)
			assert.Equal(t, tt.want.priority, task.Priority)
			assert.Equal(t, tt.want.status, task.Status)
			assert.Equal(t, tt.want.hasDue, task.DueDate != nil)
		})
	}
}

func TestUpdateTaskRequestToPatch(t *testing.T) {
	patch, err := UpdateTaskRequest{Status: strPtr("review")}.ToPatch()
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	assert.Equal(t, StatusReview, *patch.Status)
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.Priority)

	patch, err = UpdateTaskRequest{DueDate: strPtr("")}.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.ClearDueDate)

	_, err = UpdateTaskRequest{Title: strPtr(" ")}.ToPatch()
	assert.ErrorIs(t, err, errors.ErrInvalidTitle)

	_, err = UpdateTaskRequest{Priority: strPtr("urgent")}.ToPatch()
	assert.ErrorIs(t, err, errors.ErrInvalidPriority)
}

func TestTaskPatchApply(t *testing.T) {
	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	task := Task{Title: "Design review", Description: "keep", Priority: PriorityHigh, Status: StatusTodo, DueDate: &due}

	low := PriorityLow
	TaskPatch{Priority: &low}.Apply(&task)

	assert.Equal(t, "Design review", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, &due, task.DueDate)

	TaskPatch{ClearDueDate: true}.Apply(&task)
	assert.Nil(t, task.DueDate)
	assert.True(t, TaskPatch{}.IsEmpty())
}

func TestParseConversationState(t *testing.T) {
	state, err := ParseConversationState("idle")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	state, err = ParseConversationState("waiting_for_description")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDescription, state)

	_, err = ParseConversationState("listening")
	assert.ErrorIs(t, err, errors.ErrUnknownState)
}
