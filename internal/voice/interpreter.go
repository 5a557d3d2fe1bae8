package voice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"
)

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	FindTaskByTitle(ctx context.Context, userID, query string) (*models.Task, error)
}

// Rejection is a voice command the assistant declines with a spoken reason.
// Reason is ErrNotFound for unmatched tasks and a validation error otherwise.
type Rejection struct {
	Reason error
	Text   string
}

func (r *Rejection) Error() string { return r.Text }

func (r *Rejection) Unwrap() error { return r.Reason }

func reject(reason error, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Text: fmt.Sprintf(format, args...)}
}

// Interpreter applies extracted intents to the caller's tasks.
type Interpreter struct {
	tasks TaskStore
}

func NewInterpreter(tasks TaskStore) *Interpreter {
	return &Interpreter{tasks: tasks}
}

func (i *Interpreter) HandleIntent(ctx context.Context, userID string, intent models.Intent) (models.VoiceResult, error) {
	if err := intent.Validate(); err != nil {
		return models.VoiceResult{}, &Rejection{Reason: err, Text: err.Error()}
	}

	switch intent.Action {
	case models.ActionCreate:
		return i.create(ctx, userID, intent.TaskData)
	case models.ActionUpdate:
		return i.update(ctx, userID, intent.SearchQuery, intent.TaskData.Patch())
	}

	slog.Debug("voice intent ignored", "action", intent.Action, "user_id", userID)
	return models.VoiceResult{
		Status:       models.VoiceNoAction,
		ResponseText: "I'm not sure how to handle that yet.",
	}, nil
}

func (i *Interpreter) create(ctx context.Context, userID string, data models.IntentTaskData) (models.VoiceResult, error) {
	task := &models.Task{
		UserID:   userID,
		Title:    *data.Title,
		Priority: models.PriorityMedium,
		Status:   models.StatusTodo,
		DueDate:  data.DueDate,
	}
	if data.Priority != nil {
		task.Priority = *data.Priority
	}
	if data.Description != nil {
		task.Description = *data.Description
	}

	if err := i.tasks.CreateTask(ctx, task); err != nil {
		return models.VoiceResult{}, fmt.Errorf("create task: %w", err)
	}
	slog.Info("voice task created", "task_id", task.ID, "user_id", userID)

	if task.Description == "" {
		return models.VoiceResult{
			Status:       models.VoicePromptDescription,
			ResponseText: fmt.Sprintf("Okay, scheduled \"%s\". What are the details?", task.Title),
			TaskID:       task.ID,
			UpdatedTask:  task,
		}, nil
	}
	return models.VoiceResult{
		Status:       models.VoiceSuccess,
		ResponseText: fmt.Sprintf("Got it. Added \"%s\".", task.Title),
		TaskID:       task.ID,
		UpdatedTask:  task,
	}, nil
}

func (i *Interpreter) update(ctx context.Context, userID, query string, patch models.TaskPatch) (models.VoiceResult, error) {
	task, err := i.tasks.FindTaskByTitle(ctx, userID, query)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return models.VoiceResult{}, reject(errors.ErrNotFound, "I couldn't find a task matching \"%s\".", query)
		}
		return models.VoiceResult{}, fmt.Errorf("find task: %w", err)
	}

	if !patch.IsEmpty() {
		task, err = i.tasks.UpdateTask(ctx, userID, task.ID, patch)
		if err != nil {
			return models.VoiceResult{}, fmt.Errorf("update task: %w", err)
		}
		slog.Info("voice task updated", "task_id", task.ID, "user_id", userID)
	}

	return models.VoiceResult{
		Status:       models.VoiceSuccess,
		ResponseText: fmt.Sprintf("Done. I've updated \"%s\".", task.Title),
		TaskID:       task.ID,
		UpdatedTask:  task,
	}, nil
}

// AttachDescription stores the transcript verbatim as the task description.
func (i *Interpreter) AttachDescription(ctx context.Context, userID, taskID, transcript string) (models.VoiceResult, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return models.VoiceResult{}, &Rejection{Reason: errors.ErrMissingTaskID, Text: "I don't know which task to describe."}
	}

	task, err := i.tasks.UpdateTask(ctx, userID, taskID, models.TaskPatch{Description: &transcript})
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return models.VoiceResult{}, reject(errors.ErrNotFound, "I couldn't find that task.")
		}
		return models.VoiceResult{}, fmt.Errorf("attach description: %w", err)
	}
	slog.Info("voice description attached", "task_id", task.ID, "user_id", userID)

	return models.VoiceResult{
		Status:       models.VoiceSuccess,
		ResponseText: fmt.Sprintf("Got it. I've added the description to \"%s\".", task.Title),
		TaskID:       task.ID,
		UpdatedTask:  task,
	}, nil
}
