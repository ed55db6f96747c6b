// Package ingest builds the knowledge base offline: it cleans raw artist
// records, embeds them, and replaces the stored document set wholesale.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/docent/internal/retrieval"
)

// Record is one raw artist entry as exported by the exhibition handbook.
type Record struct {
	Keywords      string `json:"keywords"`
	Artist        string `json:"artist"`
	ArtistIntroCN string `json:"artistIntroCN"`
	ArtistIntroEN string `json:"artistIntroEN"`
	WorkTitleCN   string `json:"workTitleCN"`
	WorkTitleEN   string `json:"workTitleEN"`
	WorkDescCN    string `json:"workDescCN"`
	WorkDescEN    string `json:"workDescEN"`
}

// Embedder generates embeddings for cleaned records.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Replacer swaps in a whole new document set.
type Replacer interface {
	ReplaceAll(ctx context.Context, docs []retrieval.Document) error
}

// Limits applied while cleaning raw records.
const (
	maxFieldRunes = 500
	maxEmbedRunes = 400
)

// LoadRecords reads an array of raw records from a JSON file.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records file %s: %w", path, err)
	}
	return records, nil
}

// Clean normalizes one raw record: whitespace collapsed, fields trimmed,
// long prose fields truncated with an ellipsis.
func Clean(r Record) Record {
	return Record{
		Keywords:      r.Keywords,
		Artist:        sanitize(r.Artist),
		ArtistIntroCN: truncate(sanitize(r.ArtistIntroCN), maxFieldRunes),
		ArtistIntroEN: truncate(sanitize(r.ArtistIntroEN), maxFieldRunes),
		WorkTitleCN:   sanitize(r.WorkTitleCN),
		WorkTitleEN:   sanitize(r.WorkTitleEN),
		WorkDescCN:    truncate(sanitize(r.WorkDescCN), maxFieldRunes),
		WorkDescEN:    truncate(sanitize(r.WorkDescEN), maxFieldRunes),
	}
}

// EmbedText assembles the text that represents a record in vector space:
// keywords, artist, a bounded slice of the intro (Chinese first), title and
// description.
func EmbedText(r Record) string {
	intro := r.ArtistIntroCN
	if intro == "" {
		intro = r.ArtistIntroEN
	}
	title := r.WorkTitleCN
	if title == "" {
		title = r.WorkTitleEN
	}
	desc := r.WorkDescCN
	if desc == "" {
		desc = r.WorkDescEN
	}

	parts := []string{
		"关键词#" + r.Keywords,
		r.Artist,
		truncate(intro, maxEmbedRunes),
		title,
		truncate(desc, maxEmbedRunes),
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Ingestor embeds cleaned records and writes the result to storage.
type Ingestor struct {
	embedder Embedder
	replacer Replacer
	logger   *zap.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(embedder Embedder, replacer Replacer, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{embedder: embedder, replacer: replacer, logger: logger}
}

// Run cleans and embeds records concurrently, then replaces the stored set
// in one transaction. Any embedding failure aborts the run: ingestion is an
// offline step and a partial knowledge base is worse than a failed run.
func (in *Ingestor) Run(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("no records to ingest")
	}

	docs := make([]retrieval.Document, len(records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // bound concurrency against the embedding provider

	for i, raw := range records {
		g.Go(func() error {
			cleaned := Clean(raw)
			vec, err := in.embedder.Embed(gCtx, EmbedText(cleaned))
			if err != nil {
				return fmt.Errorf("embedding record %d (%s): %w", i, cleaned.Artist, err)
			}
			docs[i] = retrieval.Document{
				Keywords:      cleaned.Keywords,
				Artist:        cleaned.Artist,
				ArtistIntroCN: cleaned.ArtistIntroCN,
				ArtistIntroEN: cleaned.ArtistIntroEN,
				WorkTitleCN:   cleaned.WorkTitleCN,
				WorkTitleEN:   cleaned.WorkTitleEN,
				WorkDescCN:    cleaned.WorkDescCN,
				WorkDescEN:    cleaned.WorkDescEN,
				Embedding:     vec,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := in.replacer.ReplaceAll(ctx, docs); err != nil {
		return 0, fmt.Errorf("replacing document set: %w", err)
	}

	in.logger.Info("ingestion complete", zap.Int("documents", len(docs)))
	return len(docs), nil
}

// sanitize collapses whitespace runs (newlines included) into single spaces
// and trims the result.
func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to max runes, appending an ellipsis when it was longer.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
