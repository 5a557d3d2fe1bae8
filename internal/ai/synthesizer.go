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
	DefaultSpeechModel = openai.SpeechModelTTS1
	DefaultVoice       = string(openai.AudioSpeechNewParamsVoiceAlloy)
)

type Synthesizer struct {
	client openai.Client
	model  string
	voice  string
}

func NewSynthesizer(client openai.Client, model, voice string) *Synthesizer {
	if model == "" {
		model = DefaultSpeechModel
	}
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{client: client, model: model, voice: voice}
}

// Synthesize returns the MP3 rendering of text. The caller closes the reader.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrEmptySpeechText
	}
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          s.model,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	return resp.Body, nil
}
