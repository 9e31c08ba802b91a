package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// ════════════════════════════════════════════════════════════════════
// provider.go — Types & Helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	sys := SystemMessage("You are a Vedic astrologer.")
	if sys.Role != RoleSystem || sys.Content != "You are a Vedic astrologer." {
		t.Fatalf("SystemMessage: got %+v", sys)
	}

	user := UserMessage("when will I get married?")
	if user.Role != RoleUser || user.Content != "when will I get married?" {
		t.Fatalf("UserMessage: got %+v", user)
	}

	asst := AssistantMessage("let me look at the seventh house")
	if asst.Role != RoleAssistant || asst.Content != "let me look at the seventh house" {
		t.Fatalf("AssistantMessage: got %+v", asst)
	}
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Provider: "openai", Model: "gpt-4o",
		Content: "Jupiter transits the seventh house",
		Usage:   Usage{TotalTokens: 42},
	}
	s := r.String()
	if !strings.Contains(s, "openai") || !strings.Contains(s, "gpt-4o") || !strings.Contains(s, "42") {
		t.Fatalf("String: got %q", s)
	}

	long := &Response{Content: strings.Repeat("x", 200)}
	if !strings.Contains(long.String(), "...") {
		t.Fatal("long content should be truncated")
	}
}

func TestIsTimeout(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrTimeout, true},
		{fmt.Errorf("wrapped: %w", ErrTimeout), true},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{ErrRateLimit, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTimeout(tc.err); got != tc.want {
			t.Errorf("IsTimeout(%v): got %v, want %v", tc.err, got, tc.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// openai.go
// ════════════════════════════════════════════════════════════════════

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewOpenAIProvider("sk-test",
		WithOpenAIBaseURL(srv.URL),
		WithOpenAIHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	return p
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestOpenAIChat(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header: got %q", auth)
		}
		fmt.Fprint(w, `{
			"model": "gpt-4o",
			"choices": [{"message": {"role": "assistant", "content": "Saturn is strong"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Saturn is strong" {
		t.Errorf("content: got %q", resp.Content)
	}
	if resp.FinishReason != FinishStop {
		t.Errorf("finish: got %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("tokens: got %d", resp.Usage.TotalTokens)
	}
	if resp.Provider != ProviderOpenAI {
		t.Errorf("provider: got %q", resp.Provider)
	}
}

func TestOpenAIChatStream(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Ju\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"piter\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	ch, err := p.ChatStream(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var text strings.Builder
	var done bool
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		text.WriteString(chunk.Content)
		if chunk.Done {
			done = true
		}
	}
	if text.String() != "Jupiter" {
		t.Errorf("streamed text: got %q", text.String())
	}
	if !done {
		t.Error("stream never signalled done")
	}
}

func TestOpenAIErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{401, `{"error":{"message":"bad key"}}`, ErrNoAPIKey},
		{429, `{"error":{"message":"slow down"}}`, ErrRateLimit},
		{400, `{"error":{"message":"too long","code":"context_length_exceeded"}}`, ErrContextLength},
		{400, `{"error":{"message":"no such model","code":"model_not_found"}}`, ErrInvalidModel},
		{504, `{"error":{"message":"upstream timeout"}}`, ErrTimeout},
	}
	for _, tc := range cases {
		p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprint(w, tc.body)
		})
		_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestOpenAIModelOverride(t *testing.T) {
	var gotModel string
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		gotModel = req.Model
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`)
	})

	_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, &ChatOptions{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("model: got %q", gotModel)
	}
}

// ════════════════════════════════════════════════════════════════════
// gemini.go
// ════════════════════════════════════════════════════════════════════

func TestGeminiChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "g-test" {
			t.Errorf("key: got %q", r.URL.Query().Get("key"))
		}
		fmt.Fprint(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Venus "}, {"text": "rules Libra"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 8, "candidatesTokenCount": 4, "totalTokenCount": 12}
		}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider("g-test", WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{
		SystemMessage("astrologer"),
		UserMessage("tell me about Venus"),
	}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Venus rules Libra" {
		t.Errorf("content: got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("tokens: got %d", resp.Usage.TotalTokens)
	}
}

func TestGeminiStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Ra\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"hu\"}]},\"finishReason\":\"STOP\"}]}\n\n")
	}))
	defer srv.Close()

	p, err := NewGeminiProvider("g-test", WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}

	ch, err := p.ChatStream(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	var text strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk err: %v", chunk.Err)
		}
		text.WriteString(chunk.Content)
	}
	if text.String() != "Rahu" {
		t.Errorf("streamed text: got %q", text.String())
	}
}

func TestGeminiSystemInstructionSplit(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	p, _ := NewGeminiProvider("g-test", WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	_, err := p.Chat(context.Background(), []Message{
		SystemMessage("sys"),
		UserMessage("u1"),
		AssistantMessage("a1"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "sys" {
		t.Errorf("system instruction: got %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 2 || got.Contents[1].Role != "model" {
		t.Errorf("contents: got %+v", got.Contents)
	}
}

// ════════════════════════════════════════════════════════════════════
// router.go
// ════════════════════════════════════════════════════════════════════

// flakyProvider fails with a fixed error n times, then succeeds.
type flakyProvider struct {
	name     string
	failErr  error
	failLeft int32
	calls    int32
}

func (p *flakyProvider) Name() string                   { return p.name }
func (p *flakyProvider) Models() []string               { return []string{"m-" + p.name} }
func (p *flakyProvider) Ping(ctx context.Context) error { return nil }

func (p *flakyProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	atomic.AddInt32(&p.calls, 1)
	if atomic.AddInt32(&p.failLeft, -1) >= 0 {
		return nil, p.failErr
	}
	return &Response{Content: "ok from " + p.name, Provider: p.name, FinishReason: FinishStop}, nil
}

func (p *flakyProvider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	atomic.AddInt32(&p.calls, 1)
	if atomic.AddInt32(&p.failLeft, -1) >= 0 {
		return nil, p.failErr
	}
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Content: "ok", Done: true}
	close(ch)
	return ch, nil
}

func TestRouterRetriesTimeoutsOnly(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrTimeout, failLeft: 2}
	r := NewRouter("flaky", WithRetryBase(time.Millisecond))
	r.RegisterProvider(p)

	resp, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok from flaky" {
		t.Errorf("content: got %q", resp.Content)
	}
	if got := atomic.LoadInt32(&p.calls); got != 3 {
		t.Errorf("calls: got %d, want 3 (two timeouts + success)", got)
	}
}

func TestRouterExhaustsRetries(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrTimeout, failLeft: 99}
	r := NewRouter("flaky", WithRetryBase(time.Millisecond))
	r.RegisterProvider(p)

	_, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout after exhausted retries, got %v", err)
	}
	if got := atomic.LoadInt32(&p.calls); got != 3 {
		t.Errorf("calls: got %d, want exactly 3 attempts", got)
	}
}

func TestRouterDoesNotRetryNonTimeout(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrRateLimit, failLeft: 99}
	fb := NewFakeProvider(FakeReply{Content: "fallback answer"})
	r := NewRouter("flaky", WithRetryBase(time.Millisecond), WithFallbacks(ProviderFake))
	r.RegisterProvider(p)
	r.RegisterProvider(fb)

	resp, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "fallback answer" {
		t.Errorf("content: got %q", resp.Content)
	}
	if got := atomic.LoadInt32(&p.calls); got != 1 {
		t.Errorf("primary calls: got %d, want 1 (no retry on rate limit)", got)
	}
}

func TestRouterNonRetryableShortCircuits(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrNoAPIKey, failLeft: 99}
	fb := NewFakeProvider(FakeReply{Content: "should never be reached"})
	r := NewRouter("flaky", WithRetryBase(time.Millisecond), WithFallbacks(ProviderFake))
	r.RegisterProvider(p)
	r.RegisterProvider(fb)

	_, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if fb.Calls() != 0 {
		t.Error("fallback should not run after a non-retryable error")
	}
}

func TestRouterStreamFallback(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrProviderDown, failLeft: 99}
	fb := NewFakeProvider(FakeReply{Chunks: []string{"hello"}})
	r := NewRouter("flaky", WithFallbacks(ProviderFake))
	r.RegisterProvider(p)
	r.RegisterProvider(fb)

	ch, err := r.ChatStream(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	var text strings.Builder
	for chunk := range ch {
		text.WriteString(chunk.Content)
	}
	if text.String() != "hello" {
		t.Errorf("streamed text: got %q", text.String())
	}
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter("openai")
	if _, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil); err == nil {
		t.Fatal("expected error with no providers registered")
	}
}

func TestRouterModelPreference(t *testing.T) {
	fb := NewFakeProvider(FakeReply{Content: "ok"})
	r := NewRouter(ProviderFake, WithModelPreference("gpt-4o", "fake-1"))
	r.RegisterProvider(fb)

	opts := r.withPreferredModel(fb, nil)
	if opts == nil || opts.Model != "fake-1" {
		t.Fatalf("preferred model: got %+v, want fake-1", opts)
	}

	pinned := r.withPreferredModel(fb, &ChatOptions{Model: "pinned"})
	if pinned.Model != "pinned" {
		t.Errorf("pinned model must win, got %q", pinned.Model)
	}
}

func TestRouterRateLimitWaits(t *testing.T) {
	if testing.Short() {
		t.Skip("throttle wait test skipped in -short")
	}
	fb := NewFakeProvider(FakeReply{Content: "ok"})
	// 60 req/min = 1 req/s, burst 1: the second call must wait ~1s.
	r := NewRouter(ProviderFake, WithRateLimit(60))
	r.RegisterProvider(fb)

	ctx := context.Background()
	if _, err := r.Chat(ctx, []Message{UserMessage("a")}, nil); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := r.Chat(ctx, []Message{UserMessage("b")}, nil); err != nil {
		t.Fatal(err)
	}
	if waited := time.Since(start); waited < 500*time.Millisecond {
		t.Errorf("second call should have been throttled, waited %v", waited)
	}
}

func TestRouterCancelDuringBackoff(t *testing.T) {
	p := &flakyProvider{name: "flaky", failErr: ErrTimeout, failLeft: 99}
	r := NewRouter("flaky", WithRetryBase(10*time.Second))
	r.RegisterProvider(p)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := r.Chat(ctx, []Message{UserMessage("hi")}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled during backoff, got %v", err)
	}
}

func TestRouterModelsUnion(t *testing.T) {
	r := NewRouter(ProviderFake)
	r.RegisterProvider(NewFakeProvider())
	r.RegisterProvider(&flakyProvider{name: "other"})

	models := r.Models()
	if len(models) != 2 {
		t.Fatalf("models union: got %v", models)
	}
}

// ════════════════════════════════════════════════════════════════════
// fake.go
// ════════════════════════════════════════════════════════════════════

func TestFakeProviderScript(t *testing.T) {
	p := NewFakeProvider(
		FakeReply{Content: "first"},
		FakeReply{Content: "second"},
	)

	ctx := context.Background()
	r1, err := p.Chat(ctx, []Message{UserMessage("a")}, nil)
	if err != nil || r1.Content != "first" {
		t.Fatalf("first call: %v %v", r1, err)
	}
	r2, _ := p.Chat(ctx, []Message{UserMessage("b")}, nil)
	if r2.Content != "second" {
		t.Fatalf("second call: got %q", r2.Content)
	}
	// Script exhausted: last reply repeats.
	r3, _ := p.Chat(ctx, []Message{UserMessage("c")}, nil)
	if r3.Content != "second" {
		t.Fatalf("third call: got %q", r3.Content)
	}
	if p.Calls() != 3 {
		t.Errorf("calls: got %d", p.Calls())
	}
	if msgs := p.LastMessages(); len(msgs) != 1 || msgs[0].Content != "c" {
		t.Errorf("LastMessages: got %+v", msgs)
	}
}

func TestFakeProviderStreamChunks(t *testing.T) {
	p := NewFakeProvider(FakeReply{Chunks: []string{"om ", "tat ", "sat"}})

	ch, err := p.ChatStream(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var text strings.Builder
	n := 0
	sawDone := false
	for chunk := range ch {
		if chunk.Done {
			sawDone = true
			continue
		}
		n++
		text.WriteString(chunk.Content)
	}
	if text.String() != "om tat sat" {
		t.Errorf("text: got %q", text.String())
	}
	if n != 3 {
		t.Errorf("chunks: got %d, want 3", n)
	}
	if !sawDone {
		t.Error("missing terminal done chunk")
	}
}

func TestFakeProviderScriptedError(t *testing.T) {
	p := NewFakeProvider(FakeReply{Err: ErrProviderDown})
	if _, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected scripted error, got %v", err)
	}
}
