package llama

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/chriskillpack/bpreader/analyzer"
	"github.com/go-resty/resty/v2"
)

const (
	imagePreamble = `A chat between a curious human and an artificial intelligence assistant. The assistant gives short, exact answers to the human's questions.
USER:`
	imageSuffix = `
ASSISTANT:`

	imageID = 10

	DefaultModel = "llava"
)

type jsonmap map[string]any

// Lifted from the server UI, with a low temperature since the answer is a few
// digits read off a display.
var defaultparams = jsonmap{
	"n_predict":         analyzer.MaxResponseTokens,
	"n_probs":           0,
	"temperature":       0.1,
	"stop":              []string{"</s>", "USER:", "ASSISTANT:"},
	"repeat_last_n":     256,
	"repeat_penalty":    1.18,
	"top_k":             40,
	"top_p":             0.5,
	"tfs_z":             1,
	"typical_p":         1,
	"presence_penalty":  0,
	"frequency_penalty": 0,
	"mirostat":          0,
	"grammar":           "",
	"slot_id":           -1,
	"cache_prompt":      false,
	"stream":            false,
}

type Options struct {
	Server     string // e.g. http://localhost:8080
	Model      string // informational, the server runs whatever it was started with
	Seed       int
	MaxRetries int

	HttpClient *http.Client // if nil uses http.DefaultClient
}

type llama struct {
	srvAddr string
	model   string
	seed    int

	client *resty.Client
}

var _ analyzer.Analyzer = &llama{}

func Init(opts Options) *llama {
	httpClient := opts.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	return &llama{
		srvAddr: opts.Server,
		model:   model,
		seed:    opts.Seed,
		client:  newRestyClient(httpClient, opts.Server, opts.MaxRetries),
	}
}

func newRestyClient(httpClient *http.Client, srvAddr string, retries int) *resty.Client {
	return resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimSuffix(srvAddr, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(max(retries, 0)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			// The server answers 503 while the model is still loading
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
}

func (l *llama) Name() string { return "llama" }

func (l *llama) Model() string { return l.model }

func (l *llama) IsHealthy(ctx context.Context) bool {
	resp, err := l.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return false
	}

	return resp.StatusCode() == http.StatusOK
}

func (l *llama) Analyze(ctx context.Context, imageB64, prompt string) (string, error) {
	data := maps.Clone(defaultparams)
	data["prompt"] = fmt.Sprintf("%s[img-%d]%s%s", imagePreamble, imageID, prompt, imageSuffix)
	data["seed"] = l.seed
	data["image_data"] = []jsonmap{
		{
			"data": imageB64, "id": imageID,
		},
	}

	respbody := struct {
		Content string `json:"content"`
	}{}
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(data).
		SetResult(&respbody).
		Post("/completion")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("llama server returned %s: %s", resp.Status(), resp.String())
	}

	return strings.TrimSpace(respbody.Content), nil
}
