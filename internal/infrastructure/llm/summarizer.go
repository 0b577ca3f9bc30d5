package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

const (
	defaultModel        = "gpt-4o-mini"
	defaultTemperature  = 0.2
	defaultMaxBodyChars = 8000
	defaultTimeout      = 60 * time.Second
)

var (
	// ErrServiceFailure covers transport errors, non-2xx statuses and empty completions.
	ErrServiceFailure = errors.New("reasoning service failure")
	// ErrMisconfigured is returned when no credential or model is available.
	ErrMisconfigured = errors.New("summarizer misconfigured")
)

// Summarizer implements ports.Summarizer on top of OpenAI chat completions
// in JSON-object mode.
type Summarizer struct {
	client       openai.Client
	model        string
	temperature  float64
	maxBodyChars int
	limiter      *rate.Limiter
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer builds a client from configuration. An empty API key is a
// startup error.
func NewSummarizer(cfg config.LLMConfig, extra ...option.RequestOption) (*Summarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrMisconfigured)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	maxBody := cfg.MaxBodyChars
	if maxBody <= 0 {
		maxBody = defaultMaxBodyChars
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Summarizer{
		client:       openai.NewClient(opts...),
		model:        model,
		temperature:  temperature,
		maxBodyChars: maxBody,
		limiter:      limiter,
	}, nil
}

// Summarize sends one article to the reasoning service. The result is either
// a fully validated summary or an error matching ErrServiceFailure or
// domain.ErrSchemaInvalid.
func (s *Summarizer) Summarize(ctx context.Context, req ports.SummaryRequest) (domain.Summary, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.Summary{}, fmt.Errorf("%w: rate limiter: %v", ErrServiceFailure, err)
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req, s.maxBodyChars)),
		},
		Temperature: openai.Float(s.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return domain.Summary{}, fmt.Errorf("%w: status %d", ErrServiceFailure, apiErr.StatusCode)
		}
		return domain.Summary{}, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Summary{}, fmt.Errorf("%w: empty choices", ErrServiceFailure)
	}

	summary, err := domain.ParseSummary([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}
