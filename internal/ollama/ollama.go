package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chriskillpack/bpreader/analyzer"
	"github.com/go-resty/resty/v2"
)

const DefaultModel = "llava"

type Options struct {
	Server     string // e.g. http://localhost:11434
	Model      string // if empty uses DefaultModel
	MaxRetries int

	HttpClient *http.Client // if nil uses http.DefaultClient
}

type ollama struct {
	model  string
	client *resty.Client
}

var _ analyzer.Analyzer = &ollama{}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func Init(opts Options) *ollama {
	httpClient := opts.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimSuffix(opts.Server, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(max(opts.MaxRetries, 0)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &ollama{model: model, client: client}
}

func (o *ollama) Name() string { return "ollama" }

func (o *ollama) Model() string { return o.model }

// IsHealthy checks the root endpoint, which answers "Ollama is running".
func (o *ollama) IsHealthy(ctx context.Context) bool {
	resp, err := o.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return false
	}

	return resp.StatusCode() == http.StatusOK
}

func (o *ollama) Analyze(ctx context.Context, imageB64, prompt string) (string, error) {
	var gr generateResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  o.model,
			Prompt: prompt,
			Images: []string{imageB64},
			Stream: false,
			Options: map[string]any{
				"num_predict": analyzer.MaxResponseTokens,
				"temperature": 0,
			},
		}).
		SetResult(&gr).
		Post("/api/generate")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status(), resp.String())
	}
	if !gr.Done {
		return "", fmt.Errorf("incomplete response from ollama model %s", o.model)
	}

	return strings.TrimSpace(gr.Response), nil
}
