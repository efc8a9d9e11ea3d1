package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/secrets"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type generateCall struct {
	label    string
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeModels records calls from every backend into a shared log.
type fakeModels struct {
	mu    sync.Mutex
	queue []fakeResponse
	calls []generateCall
}

type labelledModels struct {
	label  string
	shared *fakeModels
}

func (l *labelledModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f := l.shared
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{label: l.label, model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(t *testing.T, labels []string, maxRetries int) (*Generator, *fakeModels) {
	t.Helper()

	keys := make([]secrets.Key, len(labels))
	shared := &fakeModels{}
	g := &Generator{model: "gemini-test", maxRetries: maxRetries, maxLogLen: defaultMaxLogLength, logger: zap.NewNop()}
	for i, label := range labels {
		keys[i] = secrets.Key{Label: label, Value: "secret-" + label}
		g.backends = append(g.backends, backend{label: label, models: &labelledModels{label: label, shared: shared}})
	}
	ring, err := NewKeyRing(keys)
	if err != nil {
		t.Fatalf("new key ring: %v", err)
	}
	g.ring = ring
	return g, shared
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	original := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &delays
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	delays := stubSleep(t)

	g, models := newTestGenerator(t, []string{"first", "second"}, 2)
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	output, err := g.Generate(context.Background(), ai.Request{System: "system", Text: "message"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	if models.calls[0].label != "first" || models.calls[1].label != "second" {
		t.Fatalf("expected keys to rotate, got %q then %q", models.calls[0].label, models.calls[1].label)
	}
	if len(*delays) != 1 {
		t.Fatalf("expected a single backoff, got %v", *delays)
	}

	for _, call := range models.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "message" {
			t.Fatalf("unexpected contents: %+v", call.contents)
		}
		if call.model != "gemini-test" {
			t.Fatalf("unexpected model: %q", call.model)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubSleep(t)

	g, models := newTestGenerator(t, []string{"only"}, 2)
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	if _, err := g.Generate(context.Background(), ai.Request{Text: "msg"}); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	stubSleep(t)

	g, models := newTestGenerator(t, []string{"only"}, 3)
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	if _, err := g.Generate(context.Background(), ai.Request{Text: "msg"}); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorSendsAttachmentsAndJSONMode(t *testing.T) {
	g, models := newTestGenerator(t, []string{"only"}, 1)
	models.enqueue(textResponse(`[]`), nil)

	_, err := g.Generate(context.Background(), ai.Request{
		Text:        "review",
		Attachments: []ai.Attachment{{MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}},
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := models.calls[0]
	parts := call.contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "application/pdf" {
		t.Fatalf("expected pdf attachment first, got %+v", parts)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type, got %q", call.config.ResponseMIMEType)
	}
	if call.config.SystemInstruction != nil {
		t.Fatalf("did not expect a system instruction")
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g, models := newTestGenerator(t, []string{"only"}, 1)
	if _, err := g.Generate(context.Background(), ai.Request{Text: "   "}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if len(models.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(models.calls))
	}
}

func TestKeyRingRoundRobin(t *testing.T) {
	ring, err := NewKeyRing([]secrets.Key{{Label: "a"}, {Label: "b"}, {Label: "c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for i := 0; i < 5; i++ {
		_, key := ring.Next()
		got = append(got, key.Label)
	}
	want := []string{"a", "b", "c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected rotation: %v", got)
		}
	}

	if _, err := NewKeyRing(nil); err == nil {
		t.Fatal("expected error for empty ring")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
		delay time.Duration
	}{
		{name: "server error", err: genai.APIError{Code: http.StatusInternalServerError}, retry: true, delay: baseRetryDelay},
		{name: "short quota", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 5.5s."}, retry: true, delay: 5500 * time.Millisecond},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest}, retry: false},
		{name: "plain error", err: errors.New("boom"), retry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := retryDelay(tt.err, 1)
			if retry != tt.retry {
				t.Fatalf("expected retry=%v, got %v", tt.retry, retry)
			}
			if tt.retry && delay != tt.delay {
				t.Fatalf("expected delay %v, got %v", tt.delay, delay)
			}
		})
	}
}
