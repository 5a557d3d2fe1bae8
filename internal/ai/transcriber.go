package ai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"aura/internal/domain/errors"

	openai "github.com/openai/openai-go/v3"
)

const (
	DefaultTranscriptionModel = openai.AudioModelWhisper1
	DefaultLanguage           = "en"
)

type Transcriber struct {
	client openai.Client
	model  string
}

func NewTranscriber(client openai.Client, model string) *Transcriber {
	if model == "" {
		model = DefaultTranscriptionModel
	}
	return &Transcriber{client: client, model: model}
}

// Transcribe sends a waveform to the speech recognition endpoint and returns
// the trimmed text. An empty result is reported as ErrEmptyTranscript.
func (t *Transcriber) Transcribe(ctx context.Context, r io.Reader, filename, language string) (string, error) {
	if language == "" {
		language = DefaultLanguage
	}
	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(r, filename, "audio/wav"),
		Model:    t.model,
		Language: openai.String(language),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.ErrEmptyTranscript
	}
	return text, nil
}
