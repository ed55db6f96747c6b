// Package faq matches visitor questions against a fixed set of canned
// question/answer pairs so common questions never reach the language model.
package faq

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry groups equivalent phrasings of one question with its canonical answer.
type Entry struct {
	Questions []string `json:"q"`
	Answer    string   `json:"a"`
}

// DefaultThreshold is the minimum similarity for a fuzzy match.
const DefaultThreshold = 0.7

// phrasing is one known question phrasing, lowercased at load time.
type phrasing struct {
	question string
	answer   string
}

// Matcher answers questions from a fixed FAQ set. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	phrasings []phrasing
	threshold float64
}

// NewMatcher builds a Matcher from entries. Phrasings keep entry order, so
// earlier entries win substring ties. threshold <= 0 selects DefaultThreshold.
func NewMatcher(entries []Entry, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Matcher{threshold: threshold}
	for _, e := range entries {
		for _, q := range e.Questions {
			q = strings.ToLower(strings.TrimSpace(q))
			if q == "" {
				continue
			}
			m.phrasings = append(m.phrasings, phrasing{question: q, answer: e.Answer})
		}
	}
	return m
}

// Load reads FAQ entries from a JSON file and builds a Matcher.
func Load(path string, threshold float64) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FAQ file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing FAQ file %s: %w", path, err)
	}
	return NewMatcher(entries, threshold), nil
}

// Len returns the number of known phrasings.
func (m *Matcher) Len() int {
	return len(m.phrasings)
}

// Match returns the canned answer for question, if any. The fast path checks
// whether any known phrasing is contained in the normalized question; on a
// miss, the best string-similarity score across all phrasings decides,
// subject to the threshold. Empty input never matches.
func (m *Matcher) Match(question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return "", false
	}

	for _, p := range m.phrasings {
		if strings.Contains(q, p.question) {
			return p.answer, true
		}
	}

	bestScore := 0.0
	bestAnswer := ""
	for _, p := range m.phrasings {
		score := Similarity(q, p.question)
		if score > bestScore {
			bestScore = score
			bestAnswer = p.answer
		}
	}
	if bestScore >= m.threshold {
		return bestAnswer, true
	}
	return "", false
}
