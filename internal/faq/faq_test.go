package faq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testEntries() []Entry {
	return []Entry{
		{Questions: []string{"什么是VR", "VR是什么"}, Answer: "VR是虚拟现实技术。"},
		{Questions: []string{"what is the metaverse"}, Answer: "The metaverse is a shared virtual space."},
		{Questions: []string{"开放时间", "几点开门"}, Answer: "展览每天上午十点开放。"},
	}
}

func TestMatch_ExactPhrasing(t *testing.T) {
	m := NewMatcher(testEntries(), 0)
	for _, q := range []string{"什么是VR", "WHAT IS THE METAVERSE", "几点开门"} {
		if _, ok := m.Match(q); !ok {
			t.Errorf("Match(%q) missed, want hit", q)
		}
	}
}

func TestMatch_SubstringContainment(t *testing.T) {
	m := NewMatcher(testEntries(), 0)
	answer, ok := m.Match("请问一下什么是VR啊")
	if !ok {
		t.Fatal("Match missed, want substring hit")
	}
	if answer != "VR是虚拟现实技术。" {
		t.Errorf("answer = %q, want VR answer", answer)
	}
}

func TestMatch_SubstringFirstWins(t *testing.T) {
	entries := []Entry{
		{Questions: []string{"开放"}, Answer: "first"},
		{Questions: []string{"开放时间"}, Answer: "second"},
	}
	m := NewMatcher(entries, 0)
	answer, ok := m.Match("开放时间是什么")
	if !ok || answer != "first" {
		t.Errorf("Match = (%q, %v), want first entry to win in load order", answer, ok)
	}
}

func TestMatch_FuzzyFallback(t *testing.T) {
	m := NewMatcher(testEntries(), 0)
	// No phrasing is a substring, but close enough to "what is the metaverse".
	answer, ok := m.Match("what is thee metaverse")
	if !ok {
		t.Fatal("Match missed, want fuzzy hit")
	}
	if answer != "The metaverse is a shared virtual space." {
		t.Errorf("answer = %q, want metaverse answer", answer)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	m := NewMatcher(testEntries(), 0)
	for _, q := range []string{"", "   ", "how do I get to the train station"} {
		if answer, ok := m.Match(q); ok {
			t.Errorf("Match(%q) = %q, want no match", q, answer)
		}
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	m := NewMatcher([]Entry{{Questions: []string{"What Is VR"}, Answer: "a"}}, 0)
	if _, ok := m.Match("what is vr"); !ok {
		t.Error("Match should be case-insensitive")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"night", "night", 1, 1},
		{"night", "nacht", 0.2, 0.3}, // classic dice example: 1 shared bigram of 4+4
		{"", "night", 0, 0},
		{"a", "b", 0, 0},
		{"你好世界", "你好世界", 1, 1},
		{"你好世界", "完全不同", 0, 0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("Similarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq.json")
	data, err := json.Marshal(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path, 0.8)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Len() != 5 {
		t.Errorf("Len = %d, want 5 flattened phrasings", m.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), 0); err == nil {
		t.Error("Load of missing file should fail")
	}
}
