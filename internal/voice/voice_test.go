package voice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/docent/internal/provider"
	"github.com/kalambet/docent/internal/speech"
	"github.com/kalambet/docent/internal/task"
)

// fakeProvider implements both provider interfaces with scripted statuses.
type fakeProvider struct {
	submitErr error
	updates   []task.Update[string]
	polls     int
	submits   int
}

func (f *fakeProvider) CreateTranscription(ctx context.Context, audio string, lang provider.Language) (string, error) {
	f.submits++
	return "task-1", f.submitErr
}

func (f *fakeProvider) TranscriptionStatus(ctx context.Context, id string) (task.Update[string], error) {
	return f.next(), nil
}

func (f *fakeProvider) CreateSynthesis(ctx context.Context, text string, lang provider.Language) (string, error) {
	f.submits++
	return "task-1", f.submitErr
}

func (f *fakeProvider) SynthesisStatus(ctx context.Context, id string) (task.Update[string], error) {
	return f.next(), nil
}

func (f *fakeProvider) next() task.Update[string] {
	u := f.updates[min(f.polls, len(f.updates)-1)]
	f.polls++
	return u
}

func newTestService(p *fakeProvider) *Service {
	return NewService(p, p, task.Config{Interval: time.Millisecond, Timeout: time.Second}, 0, nil)
}

func TestTranscribe(t *testing.T) {
	p := &fakeProvider{updates: []task.Update[string]{
		{State: task.StatePending},
		{State: task.StateSucceeded, Result: "你好世界"},
	}}

	text, err := newTestService(p).Transcribe(context.Background(), "base64-audio", provider.LangMandarin)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "你好世界" {
		t.Errorf("text = %q", text)
	}
	if p.polls != 2 {
		t.Errorf("polls = %d, want 2", p.polls)
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	p := &fakeProvider{}
	_, err := newTestService(p).Transcribe(context.Background(), "", provider.LangMandarin)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("error = %v, want ErrEmptyAudio", err)
	}
	if p.submits != 0 {
		t.Error("empty audio must not reach the provider")
	}
}

func TestTranscribe_TaskFailure(t *testing.T) {
	p := &fakeProvider{updates: []task.Update[string]{
		{State: task.StateFailed, Message: "unsupported codec"},
	}}

	_, err := newTestService(p).Transcribe(context.Background(), "audio", provider.LangEnglish)
	var execErr *task.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *task.ExecutionError", err)
	}
	if execErr.Message != "unsupported codec" {
		t.Errorf("message = %q", execErr.Message)
	}
}

func TestSynthesize(t *testing.T) {
	p := &fakeProvider{updates: []task.Update[string]{
		{State: task.StateRunning},
		{State: task.StateSucceeded, Result: "https://cdn.example.com/audio.wav"},
	}}

	url, err := newTestService(p).Synthesize(context.Background(), "欢迎来到展览", provider.LangCantonese)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasSuffix(url, ".wav") {
		t.Errorf("url = %q", url)
	}
}

func TestSynthesize_RejectsBadCharset(t *testing.T) {
	p := &fakeProvider{}
	_, err := newTestService(p).Synthesize(context.Background(), "hello 🔊", provider.LangMandarin)
	var dce *speech.DisallowedCharacterError
	if !errors.As(err, &dce) {
		t.Fatalf("error = %v, want *DisallowedCharacterError", err)
	}
	if p.submits != 0 {
		t.Error("invalid text must not reach the provider")
	}
}

func TestSynthesize_RejectsOverBudget(t *testing.T) {
	p := &fakeProvider{}
	long := strings.Repeat("字", 200)
	_, err := newTestService(p).Synthesize(context.Background(), long, provider.LangMandarin)
	var bee *speech.BudgetExceededError
	if !errors.As(err, &bee) {
		t.Fatalf("error = %v, want *BudgetExceededError", err)
	}
	if p.submits != 0 {
		t.Error("over-budget text must not reach the provider")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	_, err := newTestService(&fakeProvider{}).Synthesize(context.Background(), "", provider.LangMandarin)
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("error = %v, want ErrEmptyText", err)
	}
}
