// Package voice runs the kiosk's two audio flows, transcription and
// synthesis, as asynchronous provider tasks driven by the task poller.
package voice

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kalambet/docent/internal/provider"
	"github.com/kalambet/docent/internal/speech"
	"github.com/kalambet/docent/internal/task"
)

// TranscriptionProvider is the submit/status pair for speech recognition.
type TranscriptionProvider interface {
	CreateTranscription(ctx context.Context, audioBase64 string, lang provider.Language) (string, error)
	TranscriptionStatus(ctx context.Context, taskID string) (task.Update[string], error)
}

// SynthesisProvider is the submit/status pair for speech synthesis.
type SynthesisProvider interface {
	CreateSynthesis(ctx context.Context, text string, lang provider.Language) (string, error)
	SynthesisStatus(ctx context.Context, taskID string) (task.Update[string], error)
}

// ErrEmptyAudio rejects a transcription request with no audio payload.
var ErrEmptyAudio = errors.New("no audio data")

// ErrEmptyText rejects a synthesis request with no text.
var ErrEmptyText = errors.New("no text to synthesize")

// Service runs both flows with one poll configuration.
type Service struct {
	transcriber TranscriptionProvider
	synthesizer SynthesisProvider
	poll        task.Config
	maxSeconds  float64
	logger      *zap.Logger
}

// NewService wires the audio flows. maxSeconds bounds synthesis input the
// same way the answer pipeline bounds model output; <= 0 selects the
// default budget.
func NewService(t TranscriptionProvider, s SynthesisProvider, poll task.Config, maxSeconds float64, logger *zap.Logger) *Service {
	if maxSeconds <= 0 {
		maxSeconds = speech.DefaultMaxSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{transcriber: t, synthesizer: s, poll: poll, maxSeconds: maxSeconds, logger: logger}
}

// Transcribe submits base64-encoded audio for recognition and waits for the
// result text.
func (s *Service) Transcribe(ctx context.Context, audioBase64 string, lang provider.Language) (string, error) {
	if audioBase64 == "" {
		return "", ErrEmptyAudio
	}

	text, err := task.Run(ctx, s.poll,
		func(ctx context.Context) (string, error) {
			return s.transcriber.CreateTranscription(ctx, audioBase64, lang)
		},
		s.transcriber.TranscriptionStatus,
	)
	if err != nil {
		return "", err
	}
	s.logger.Info("transcription complete", zap.String("lang", string(lang)), zap.Int("chars", len(text)))
	return text, nil
}

// Synthesize renders text to speech and waits for the audio URL. Text is
// checked against the charset policy and the spoken budget before the
// provider sees it.
func (s *Service) Synthesize(ctx context.Context, text string, lang provider.Language) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	if err := speech.Validate(text); err != nil {
		return "", err
	}
	if seconds := speech.EstimateSeconds(text); seconds > s.maxSeconds {
		return "", &speech.BudgetExceededError{Seconds: seconds, Limit: s.maxSeconds}
	}

	url, err := task.Run(ctx, s.poll,
		func(ctx context.Context) (string, error) {
			return s.synthesizer.CreateSynthesis(ctx, text, lang)
		},
		s.synthesizer.SynthesisStatus,
	)
	if err != nil {
		return "", err
	}
	s.logger.Info("synthesis complete", zap.String("lang", string(lang)))
	return url, nil
}
