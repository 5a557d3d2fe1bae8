package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"aura/internal/domain/errors"
)

type IntentAction string

const (
	ActionCreate IntentAction = "create"
	ActionUpdate IntentAction = "update"
)

// Intent is the structured command extracted from a transcript by the
// language model. Its content is untrusted until Validate has run.
type Intent struct {
	Action      IntentAction
	TaskData    IntentTaskData
	SearchQuery string
}

// IntentTaskData holds the fields the model supplied; nil means "not given".
type IntentTaskData struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *Status
	DueDate     *time.Time
}

func (d IntentTaskData) Patch() TaskPatch {
	return TaskPatch{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Status:      d.Status,
		DueDate:     d.DueDate,
	}
}

type rawIntent struct {
	Action      *string      `json:"action"`
	TaskData    *rawTaskData `json:"task_data"`
	SearchQuery *string      `json:"search_query"`
}

type rawTaskData struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
}

var codeFence = regexp.MustCompile("(?i)```(json)?")

// StripCodeFence removes markdown code-fence markup around a model reply.
func StripCodeFence(reply string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(reply, ""))
}

// ParseIntent decodes a model reply into an Intent. The reply must be a JSON
// object whose fields have the expected types; anything else is an
// ErrIntentParse. Enumerations outside the allowed sets and unparsable dates
// are dropped rather than coerced.
func ParseIntent(reply string) (Intent, error) {
	body := StripCodeFence(reply)
	if !strings.HasPrefix(body, "{") {
		return Intent{}, fmt.Errorf("%w: expected a JSON object, got %q", errors.ErrIntentParse, truncate(body, 80))
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", errors.ErrIntentParse, err)
	}

	var intent Intent
	if raw.Action != nil {
		intent.Action = IntentAction(strings.ToLower(strings.TrimSpace(*raw.Action)))
	}
	if raw.SearchQuery != nil {
		intent.SearchQuery = strings.TrimSpace(*raw.SearchQuery)
	}
	if raw.TaskData != nil {
		intent.TaskData = raw.TaskData.sanitize()
	}
	return intent, nil
}

func (r rawTaskData) sanitize() IntentTaskData {
	var d IntentTaskData
	d.Title = nonEmpty(r.Title)
	d.Description = nonEmpty(r.Description)
	if r.Priority != nil {
		if p, ok := ParsePriority(*r.Priority); ok {
			d.Priority = &p
		}
	}
	if r.Status != nil {
		if s, ok := ParseStatus(*r.Status); ok {
			d.Status = &s
		}
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		if t, err := ParseDueDate(*r.DueDate); err == nil {
			d.DueDate = &t
		}
	}
	return d
}

// Validate checks the per-action requirements: a create needs a title and an
// update needs a search query. Other actions are left for the caller to
// treat as a no-op.
func (i Intent) Validate() error {
	switch i.Action {
	case ActionCreate:
		if i.TaskData.Title == nil {
			return errors.ErrIntentMissingTitle
		}
	case ActionUpdate:
		if i.SearchQuery == "" {
			return errors.ErrIntentMissingQuery
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
