// Package api exposes the kiosk backend over HTTP and MCP: the
// visitor-facing question, transcription and synthesis endpoints, plus
// agent tools over stdio.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kalambet/docent/internal/answer"
	"github.com/kalambet/docent/internal/provider"
	"github.com/kalambet/docent/internal/speech"
	"github.com/kalambet/docent/internal/task"
	"github.com/kalambet/docent/internal/voice"
)

// Voice uploads arrive base64-encoded inside the JSON body, so the body
// limit is sized for audio, not text.
const maxRequestBodySize = 10 << 20 // 10MB

// Answerer runs the question pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (answer.Answer, error)
}

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64 string, lang provider.Language) (string, error)
}

// Synthesizer renders text to a downloadable audio URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang provider.Language) (string, error)
}

// Deps holds the handler's collaborators.
type Deps struct {
	Answerer    Answerer
	Transcriber Transcriber
	Synthesizer Synthesizer
	Logger      *zap.Logger
}

// NewHandler returns the kiosk HTTP API.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", handleHealth)
	r.Post("/api/voice", handleVoice(deps))
	r.Post("/api/answer", handleAnswer(deps))
	r.Post("/api/speech", handleSpeech(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleVoice(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Data string `json:"data"`
			Lan  string `json:"lan"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Data == "" {
			writeFailure(w, http.StatusBadRequest, "no audio data")
			return
		}

		text, err := deps.Transcriber.Transcribe(r.Context(), req.Data, provider.ParseLanguage(req.Lan))
		if err != nil {
			if errors.Is(err, voice.ErrEmptyAudio) {
				writeFailure(w, http.StatusBadRequest, "no audio data")
				return
			}
			writeTaskError(w, deps.Logger, "transcription", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": text})
	}
}

func handleAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Message == "" {
			writeFailure(w, http.StatusBadRequest, "no message")
			return
		}

		ans, err := deps.Answerer.Answer(r.Context(), req.Message)
		if err != nil {
			var charErr *speech.DisallowedCharacterError
			var longErr *answer.TooLongError
			switch {
			case errors.As(err, &charErr), errors.As(err, &longErr):
				writeFailure(w, http.StatusBadRequest, "%s", err.Error())
			default:
				deps.Logger.Error("answer failed", zap.Error(err))
				writeFailure(w, http.StatusInternalServerError, "failed to answer")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"answer":  ans.Text,
			"source":  string(ans.Source),
		})
	}
}

func handleSpeech(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
			Lan  string `json:"lan"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Text == "" {
			writeFailure(w, http.StatusBadRequest, "no text to synthesize")
			return
		}

		url, err := deps.Synthesizer.Synthesize(r.Context(), req.Text, provider.ParseLanguage(req.Lan))
		if err != nil {
			var charErr *speech.DisallowedCharacterError
			var budgetErr *speech.BudgetExceededError
			switch {
			case errors.Is(err, voice.ErrEmptyText):
				writeFailure(w, http.StatusBadRequest, "no text to synthesize")
			case errors.As(err, &charErr), errors.As(err, &budgetErr):
				writeFailure(w, http.StatusBadRequest, "%s", err.Error())
			default:
				writeTaskError(w, deps.Logger, "synthesis", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": url})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeTaskError maps poller failures to client-safe messages. The raw
// provider error goes to the log, never to the kiosk client.
func writeTaskError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Error(op+" failed", zap.Error(err))

	var timeoutErr *task.TimeoutError
	if errors.As(err, &timeoutErr) {
		writeFailure(w, http.StatusInternalServerError, "%s timed out", op)
		return
	}
	writeFailure(w, http.StatusInternalServerError, "%s failed", op)
}

func writeFailure(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"message": fmt.Sprintf(format, args...),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
