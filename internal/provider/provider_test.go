package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/docent/internal/task"
)

// newTestClient points every service at the given test server.
func newTestClient(url string) *Client {
	c := New(Config{
		SecretID:    "id",
		SecretKey:   "key",
		LLMEndpoint: url,
		ASREndpoint: url,
		TTSEndpoint: url,
	})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func respond(t *testing.T, w http.ResponseWriter, inner any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"Response": inner}); err != nil {
		t.Fatal(err)
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-TC-Action"); got != "GetEmbedding" {
			t.Errorf("action = %q, want GetEmbedding", got)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "TC3-HMAC-SHA256 Credential=id/") {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		respond(t, w, map[string]any{
			"Data": []map[string]any{{"Embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	vec, err := newTestClient(srv.URL).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("got %d dims, want 3", len(vec))
	}
}

func TestEmbed_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]any{"Data": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("error = %v, want ErrEmptyEmbedding", err)
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if req.Stream {
			t.Error("stream must be false")
		}
		respond(t, w, map[string]any{
			"Choices": []map[string]any{{"Message": map[string]any{"Content": "  an answer \n"}}},
		})
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Chat(context.Background(), "sys", "question")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text != "an answer" {
		t.Errorf("text = %q, want trimmed answer", text)
	}
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]any{"Choices": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "sys", "q")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestCall_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]any{
			"Error": map[string]any{"Code": "AuthFailure", "Message": "secret invalid"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != "AuthFailure" {
		t.Errorf("Code = %q, want AuthFailure", apiErr.Code)
	}
}

func TestCreateTranscriptionAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-TC-Action") {
		case "CreateRecTask":
			respond(t, w, map[string]any{"Data": map[string]any{"TaskId": 42}})
		case "DescribeTaskStatus":
			respond(t, w, map[string]any{"Data": map[string]any{"Status": 2, "Result": "你好"}})
		default:
			t.Errorf("unexpected action %q", r.Header.Get("X-TC-Action"))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	id, err := c.CreateTranscription(context.Background(), "b64audio", LangMandarin)
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}
	if id != "42" {
		t.Errorf("task id = %q, want 42", id)
	}

	update, err := c.TranscriptionStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("TranscriptionStatus: %v", err)
	}
	if update.State != task.StateSucceeded || update.Result != "你好" {
		t.Errorf("update = %+v", update)
	}
}

func TestSynthesisStatus_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]any{"Data": map[string]any{"Status": 3, "StatusStr": "voice unavailable"}})
	}))
	defer srv.Close()

	update, err := newTestClient(srv.URL).SynthesisStatus(context.Background(), "tts-1")
	if err != nil {
		t.Fatalf("SynthesisStatus: %v", err)
	}
	if update.State != task.StateFailed || update.Message != "voice unavailable" {
		t.Errorf("update = %+v", update)
	}
}

func TestMapStatus_Unknown(t *testing.T) {
	if _, ok := mapStatus(9); ok {
		t.Error("status 9 should be rejected")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"CHN", LangMandarin},
		{"ENG", LangEnglish},
		{"CAN", LangCantonese},
		{"", LangMandarin},
		{"xx", LangMandarin},
	}
	for _, tt := range tests {
		if got := ParseLanguage(tt.in); got != tt.want {
			t.Errorf("ParseLanguage(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLanguageMappings(t *testing.T) {
	if LangEnglish.engineModel() != "16k_en" || LangCantonese.engineModel() != "16k_yue" || LangMandarin.engineModel() != "16k_zh_dialect" {
		t.Error("engine model mapping wrong")
	}
	if LangEnglish.voiceType() != 101050 || LangCantonese.voiceType() != 101019 || LangMandarin.voiceType() != 301038 {
		t.Error("voice type mapping wrong")
	}
}

func TestEndpointURL(t *testing.T) {
	url, host := endpointURL("asr.tencentcloudapi.com")
	if url != "https://asr.tencentcloudapi.com" || host != "asr.tencentcloudapi.com" {
		t.Errorf("bare host: got (%q, %q)", url, host)
	}
	url, host = endpointURL("http://127.0.0.1:9999/base")
	if url != "http://127.0.0.1:9999/base" || host != "127.0.0.1:9999" {
		t.Errorf("full URL: got (%q, %q)", url, host)
	}
}
