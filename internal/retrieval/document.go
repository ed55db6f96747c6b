// Package retrieval finds the knowledge-base documents most relevant to a
// visitor's question: a cheap lexical pre-filter narrows the candidate set,
// then brute-force cosine similarity over embeddings ranks it.
package retrieval

// Document is one knowledge-base record describing an artwork and its
// artist. Text fields default to the empty string, never to a null-ish
// sentinel, and Chinese/English variants are kept side by side so callers
// can pick per language. Documents are created offline by ingestion and are
// immutable at query time.
type Document struct {
	Keywords      string
	Artist        string
	ArtistIntroCN string
	ArtistIntroEN string
	WorkTitleCN   string
	WorkTitleEN   string
	WorkDescCN    string
	WorkDescEN    string

	// Embedding is the document's vector, with dimensionality fixed by the
	// embedding provider. A document without an embedding is not eligible
	// for retrieval.
	Embedding []float32
}

// ScoredDocument pairs a document with its cosine similarity to a query.
type ScoredDocument struct {
	Document
	Score float64
}
