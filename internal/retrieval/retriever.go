package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Embedder turns text into a fixed-length vector. Implementations sit at the
// provider boundary; consumers depend on this interface only.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Source supplies the full document set. No filtering is pushed down: the
// pre-filter runs in-process so retrieval behaves the same over any backend.
type Source interface {
	FetchAll(ctx context.Context) ([]Document, error)
}

// EmbeddingError reports that the query could not be embedded. Callers
// running retrieval as an optional enrichment step typically log it and
// degrade to an empty result.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding query: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Retriever ranks documents from a Source by semantic similarity to a query.
type Retriever struct {
	embedder Embedder
	source   Source
}

// NewRetriever creates a Retriever over the given embedder and source.
func NewRetriever(embedder Embedder, source Source) *Retriever {
	return &Retriever{embedder: embedder, source: source}
}

// Search returns the top k documents ranked by cosine similarity to query,
// highest first. A lexical pre-filter on artist and work title narrows the
// candidates when it can; when it matches nothing the full set is scored,
// so the pre-filter never excludes answers outright. Ties keep source
// order. An empty document set yields an empty result, not an error.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	docs, err := r.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	candidates := prefilter(docs, query)

	scored := make([]ScoredDocument, len(candidates))
	for i, d := range candidates {
		scored[i] = ScoredDocument{Document: d, Score: Cosine(vec, d.Embedding)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// prefilter keeps documents whose artist or English work title contains the
// query case-insensitively, or whose Chinese work title contains it
// directly. Falls back to the full set when nothing matches: the filter is
// a precision aid, not a hard exclusion.
func prefilter(docs []Document, query string) []Document {
	lower := strings.ToLower(query)

	var kept []Document
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Artist), lower) ||
			strings.Contains(strings.ToLower(d.WorkTitleEN), lower) ||
			(d.WorkTitleCN != "" && strings.Contains(d.WorkTitleCN, query)) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return docs
	}
	return kept
}
