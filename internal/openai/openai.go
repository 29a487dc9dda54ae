package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chriskillpack/bpreader/analyzer"
	"github.com/chriskillpack/ratelimiter"

	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o"

type Options struct {
	APIKey            string
	Model             string // if empty uses DefaultModel
	BaseURL           string // if empty uses the public API
	MaxRetries        int
	RequestsPerMinute int // 0 disables client side rate limiting

	HttpClient *http.Client // if nil uses http.DefaultClient
}

type openai struct {
	oac   *oagc.Client
	model string
	rl    *ratelimiter.Limiter // may be nil
}

var _ analyzer.Analyzer = &openai{}

func Init(opts Options) *openai {
	httpClient := opts.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	reqopts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(max(opts.MaxRetries, 0)),
	}
	if opts.BaseURL != "" {
		reqopts = append(reqopts, option.WithBaseURL(opts.BaseURL))
	}

	o := &openai{
		oac:   oagc.NewClient(reqopts...),
		model: model,
	}
	// Bounds repeated Analyze calls made by this process, the bucket starts full
	if opts.RequestsPerMinute > 0 {
		o.rl = ratelimiter.New(opts.RequestsPerMinute, time.Minute)
	}

	return o
}

func (o *openai) Name() string { return "openai" }

func (o *openai) Model() string { return o.model }

func (o *openai) IsHealthy(ctx context.Context) bool {
	_, err := o.oac.Models.Get(ctx, o.model)
	return err == nil
}

func (o *openai) Analyze(ctx context.Context, imageB64, prompt string) (string, error) {
	// Rate limit use of the OpenAI API
	if o.rl != nil {
		if err := o.rl.Acquire(ctx); err != nil {
			return "", err
		}
	}

	params := oagc.ChatCompletionNewParams{
		Messages: oagc.F([]oagc.ChatCompletionMessageParamUnion{
			oagc.UserMessageParts(
				oagc.TextPart(prompt),
				oagc.ImagePart(analyzer.DataURI(imageB64)),
			),
		}),
		Model:     oagc.F(oagc.ChatModel(o.model)),
		MaxTokens: oagc.Int(analyzer.MaxResponseTokens),
	}
	resp, err := o.oac.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}

	return resp.Choices[0].Message.Content, nil
}
