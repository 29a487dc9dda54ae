package bpreader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chriskillpack/bpreader/analyzer"
	"github.com/chriskillpack/bpreader/internal/llama"
	"github.com/chriskillpack/bpreader/internal/ollama"
	"github.com/chriskillpack/bpreader/internal/openai"
)

type InitOptions struct {
	LlamaServer string
	LlamaSeed   int

	OllamaServer string

	OpenAI        bool
	OpenAIKey     string
	OpenAIBaseURL string

	Model             string // if empty each backend picks its own default
	MaxRetries        int
	RequestsPerMinute int // OpenAI only, 0 disables rate limiting

	Prompt Prompt
	Limits Limits // zero value uses DefaultLimits

	HttpClient *http.Client     // if nil uses http.DefaultClient
	Logger     *slog.Logger     // if nil uses slog.Default()
	Now        func() time.Time // if nil uses time.Now
}

// Reader reads measurements off images of a blood pressure monitor.
type Reader struct {
	analyzer.Analyzer

	prompt Prompt
	parser *Parser
	logger *slog.Logger
}

func Init(rio InitOptions) (*Reader, error) {
	httpClient := rio.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var n int
	if rio.OpenAI {
		n++
	}
	if rio.LlamaServer != "" {
		n++
	}
	if rio.OllamaServer != "" {
		n++
	}
	switch n {
	case 0:
		return nil, fmt.Errorf("no backend selected")
	case 1:
		// no-op
	default:
		return nil, fmt.Errorf("multiple backends selected, only one allowed")
	}

	var a analyzer.Analyzer
	if rio.OpenAI {
		if rio.OpenAIKey == "" {
			return nil, ErrAPIKeyMissing
		}
		a = openai.Init(openai.Options{
			APIKey:            rio.OpenAIKey,
			Model:             rio.Model,
			BaseURL:           rio.OpenAIBaseURL,
			MaxRetries:        rio.MaxRetries,
			RequestsPerMinute: rio.RequestsPerMinute,
			HttpClient:        httpClient,
		})
	} else if rio.LlamaServer != "" {
		a = llama.Init(llama.Options{
			Server:     rio.LlamaServer,
			Model:      rio.Model,
			Seed:       rio.LlamaSeed,
			MaxRetries: rio.MaxRetries,
			HttpClient: httpClient,
		})
	} else if rio.OllamaServer != "" {
		a = ollama.Init(ollama.Options{
			Server:     rio.OllamaServer,
			Model:      rio.Model,
			MaxRetries: rio.MaxRetries,
			HttpClient: httpClient,
		})
	}

	return New(a, rio.Prompt, rio.Limits, rio.Now, rio.Logger), nil
}

// New wraps an already constructed Analyzer. An empty prompt text is replaced
// by DefaultPrompt.
func New(a analyzer.Analyzer, prompt Prompt, limits Limits, now func() time.Time, logger *slog.Logger) *Reader {
	if prompt.Text == "" {
		prompt = Prompt{Text: DefaultPrompt, Source: PromptDefault}
	}
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		Analyzer: a,
		prompt:   prompt,
		parser:   &Parser{Limits: limits, Now: now},
		logger:   logger,
	}
}

// Prompt returns the instruction sent with every image.
func (r *Reader) Prompt() Prompt { return r.prompt }

// Measure encodes the image at imagePath, asks the model to read the display
// and returns the parsed and validated Measurement.
func (r *Reader) Measure(ctx context.Context, imagePath string) (*Measurement, error) {
	logger := r.logger.With(
		"analysis_id", uuid.NewString(),
		"backend", r.Name(),
		"model", r.Model(),
		"image", imagePath,
	)

	imb64, err := EncodeImage(imagePath)
	if err != nil {
		logger.Error("encoding image", "err", err)
		return nil, err
	}

	start := time.Now()
	reply, err := r.Analyzer.Analyze(ctx, imb64, r.prompt.Text)
	if err != nil {
		logger.Error("remote analysis", "err", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("%w: failed to analyze image: %w: %w", ErrImageProcessing, ErrRemoteCall, err)
	}
	logger.Debug("model replied", "reply", reply, "elapsed", time.Since(start))

	m, err := r.parser.Parse(reply, imagePath)
	if err != nil {
		logger.Warn("rejected reply", "err", err, "kind", Kind(err))
		return nil, err
	}
	logger.Info("measurement", "reading", m.String())

	return m, nil
}
