package models

import (
	"fmt"
	"strings"

	"aura/internal/domain/errors"
)

// ConversationState is the tag the client echoes back on every voice request.
// The server keeps no session memory between turns.
type ConversationState string

const (
	StateIdle                ConversationState = "idle"
	StateAwaitingDescription ConversationState = "awaiting-description"
)

func ParseConversationState(s string) (ConversationState, error) {
	switch strings.TrimSpace(s) {
	case "", string(StateIdle):
		return StateIdle, nil
	case string(StateAwaitingDescription), "waiting_for_description":
		return StateAwaitingDescription, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownState, s)
}

type VoiceStatus string

const (
	VoiceSuccess           VoiceStatus = "success"
	VoicePromptDescription VoiceStatus = "prompt_description"
	VoiceNoAction          VoiceStatus = "no_action"
)

type VoiceResult struct {
	Status       VoiceStatus `json:"status"`
	ResponseText string      `json:"responseText"`
	TaskID       string      `json:"taskId,omitempty"`
	UpdatedTask  *Task       `json:"updatedTask,omitempty"`
	Transcript   string      `json:"transcript,omitempty"`
}

type SpeechRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}
