// Package answer orchestrates the kiosk's question pipeline: FAQ
// short-circuit, semantic retrieval, context-grounded model call, and the
// spoken-duration budget on the way out.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kalambet/docent/internal/composer"
	"github.com/kalambet/docent/internal/retrieval"
	"github.com/kalambet/docent/internal/speech"
)

// Provenance tags which path produced an answer.
type Provenance string

const (
	SourceFAQ        Provenance = "faq"
	SourceGrounded   Provenance = "grounded"
	SourceUngrounded Provenance = "ungrounded"
)

// Answer is the pipeline's result.
type Answer struct {
	Text   string
	Source Provenance
}

// FAQMatcher is the local canned-answer matcher.
type FAQMatcher interface {
	Match(question string) (string, bool)
}

// Searcher is the semantic retriever.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.ScoredDocument, error)
}

// ModelClient is the language-model boundary.
type ModelClient interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// TooLongError reports a model answer that would exceed the spoken budget.
// The answer is rejected whole; truncating could cut it mid-sentence.
type TooLongError struct {
	Seconds float64
	Limit   float64
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("answer would take %.1fs to speak, limit is %.0fs", e.Seconds, e.Limit)
}

// Config tunes the pipeline.
type Config struct {
	// TopK is how many documents ground the model call.
	TopK int
	// MaxSpeechSeconds is the spoken-answer budget.
	MaxSpeechSeconds float64
	// Preamble is the exhibition introduction prepended to system prompts.
	Preamble string
}

// Service answers visitor questions. Safe for concurrent use: it holds only
// immutable configuration and read-only collaborators.
type Service struct {
	faq       FAQMatcher
	retriever Searcher
	model     ModelClient
	cfg       Config
	logger    *zap.Logger
}

const defaultTopK = 8

// NewService wires the pipeline. faq may be nil to disable the FAQ
// short-circuit.
func NewService(faq FAQMatcher, retriever Searcher, model ModelClient, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.MaxSpeechSeconds <= 0 {
		cfg.MaxSpeechSeconds = speech.DefaultMaxSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{faq: faq, retriever: retriever, model: model, cfg: cfg, logger: logger}
}

// Answer runs the pipeline for one question. The charset policy is enforced
// before anything else runs; an FAQ hit returns without touching any
// provider. Retrieval failures degrade to an ungrounded answer, while model
// failures and over-budget answers surface to the caller. A failed request
// never returns a partial answer.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if err := speech.Validate(question); err != nil {
		return Answer{}, err
	}

	if s.faq != nil {
		if canned, ok := s.faq.Match(question); ok {
			s.logger.Info("faq hit", zap.String("question", question))
			return Answer{Text: canned, Source: SourceFAQ}, nil
		}
	}

	docs := s.retrieve(ctx, question)

	contextBlock := ""
	source := SourceUngrounded
	if len(docs) > 0 {
		contextBlock = composer.BuildContext(docs)
		source = SourceGrounded
	}
	systemPrompt := composer.SystemPrompt(contextBlock, s.cfg.Preamble)

	text, err := s.model.Chat(ctx, systemPrompt, question)
	if err != nil {
		return Answer{}, fmt.Errorf("model call: %w", err)
	}

	if seconds := speech.EstimateSeconds(text); seconds > s.cfg.MaxSpeechSeconds {
		return Answer{}, &TooLongError{Seconds: seconds, Limit: s.cfg.MaxSpeechSeconds}
	}

	return Answer{Text: text, Source: source}, nil
}

// retrieve runs semantic retrieval as an optional enrichment step: any
// failure is logged and treated as zero documents so the answer flow stays
// available while retrieval is down.
func (s *Service) retrieve(ctx context.Context, question string) []retrieval.Document {
	scored, err := s.retriever.Search(ctx, question, s.cfg.TopK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering ungrounded", zap.Error(err))
		return nil
	}

	docs := make([]retrieval.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs
}
