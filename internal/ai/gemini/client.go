package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/logger"
	"github.com/spigell/hh-analyst/internal/util"
)

const (
	Provider     = "gemini"
	DefaultModel = "gemini-2.5-flash"

	defaultMaxRetries    = 3
	defaultMaxLogLength  = 200
	baseRetryDelay       = 2 * time.Second
	maxAcceptedRetryWait = 30 * time.Second
)

var sleep = util.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// contentModels is the part of genai.Models used by the generator.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type backend struct {
	label  string
	models contentModels
}

// Generator sends prompts to Gemini, rotating API keys on every call.
type Generator struct {
	backends   []backend
	ring       *KeyRing
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

type Option func(*Generator)

func WithMaxRetries(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithMaxLogLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxLogLen = n
		}
	}
}

// NewGenerator creates one Gemini API client per key of the ring.
func NewGenerator(ctx context.Context, ring *KeyRing, model string, opts ...Option) (*Generator, error) {
	if ring == nil {
		return nil, errors.New("gemini key ring is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	g := &Generator{
		ring:       ring,
		model:      model,
		maxRetries: defaultMaxRetries,
		maxLogLen:  defaultMaxLogLength,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, key := range ring.Keys() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key.Value,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client for key %q: %w", key.Label, err)
		}
		g.backends = append(g.backends, backend{label: key.Label, models: client.Models})
	}

	return g, nil
}

// Generate sends the request, retrying temporary failures with the next API key.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || len(g.backends) == 0 {
		return "", errors.New("gemini generator is not initialized")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Attachments) == 0 {
		return "", errors.New("prompt must not be empty")
	}

	contents := []*genai.Content{{
		Role:  string(genai.RoleUser),
		Parts: buildParts(text, req.Attachments),
	}}
	config := buildConfig(req)

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		b := g.pick()
		log := logger.WithFields(g.logger, logger.LLMFields(Provider, g.model, b.label)...)

		log.Debug("gemini generate content request",
			zap.Int("attempt", attempt),
			zap.Int("prompt_length", utf8.RuneCountInString(text)),
			zap.Int("attachments", len(req.Attachments)),
			zap.String("prompt_preview", util.TruncateForLog(text, g.maxLogLen)),
		)

		resp, err := b.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			output, err := responseText(resp)
			if err != nil {
				return "", err
			}
			log.Debug("gemini generate content response",
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", util.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}

		lastErr = fmt.Errorf("generate content: %w", err)
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (g *Generator) pick() backend {
	if g.ring == nil || g.ring.Len() != len(g.backends) {
		return g.backends[0]
	}
	i, _ := g.ring.Next()
	return g.backends[i]
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func buildParts(text string, attachments []ai.Attachment) []*genai.Part {
	parts := make([]*genai.Part, 0, len(attachments)+1)
	for _, a := range attachments {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data}})
	}
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	return parts
}

func buildConfig(req ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: safetySettings(),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdBlockLowAndAbove})
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay reports whether err is worth retrying and how long to wait first.
// Quota errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		wait := baseRetryDelay * time.Duration(attempt)
		if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
			if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
				wait = time.Duration(secs * float64(time.Second))
			}
		}
		if wait > maxAcceptedRetryWait {
			return 0, false
		}
		return wait, true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return baseRetryDelay * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}
