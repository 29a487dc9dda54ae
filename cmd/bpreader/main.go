package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/chriskillpack/bpreader"
	"github.com/chriskillpack/bpreader/internal/config"
	"github.com/chriskillpack/bpreader/internal/logging"
)

var (
	configPath   = flag.String("config", "", "Path to config file, by default ./bpreader.yaml or ./config/bpreader.yaml if present")
	imagePath    = flag.String("image", "", "Path to the monitor image, overrides config")
	envPath      = flag.String("env", "", "Path to .env file holding OPENAI_API_KEY, overrides config")
	promptsPath  = flag.String("prompts", "", "Path to prompts YAML, overrides config")
	llamaServer  = flag.String("llama", "", "Address of running llama server, typically http://localhost:8080")
	llamaSeed    = flag.Int("seed", 0, "Random seed to llama, 0 keeps the configured seed")
	ollamaServer = flag.String("ollama", "", "Address of running ollama server, typically http://localhost:11434")
	model        = flag.String("model", "", "Model to use, overrides config")
	healthcheck  = flag.Bool("healthcheck", false, "Check the backend is reachable before sending the image")
	spinner      = flag.Bool("spinner", true, "Show a spinner on stderr while waiting for the model")
)

// applyFlags layers explicitly set flags over the loaded config. Passing -llama
// or -ollama selects that backend.
func applyFlags(cfg *config.Config) {
	if *imagePath != "" {
		cfg.Image = *imagePath
	}
	if *envPath != "" {
		cfg.EnvFile = *envPath
	}
	if *promptsPath != "" {
		cfg.Prompts = *promptsPath
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *llamaSeed != 0 {
		cfg.Llama.Seed = *llamaSeed
	}
	if *llamaServer != "" {
		cfg.Backend = "llama"
		cfg.Llama.Server = *llamaServer
	}
	if *ollamaServer != "" {
		cfg.Backend = "ollama"
		cfg.Ollama.Server = *ollamaServer
	}
}

func initOptions(cfg *config.Config, apiKey string, prompt bpreader.Prompt, logger *slog.Logger) bpreader.InitOptions {
	rio := bpreader.InitOptions{
		Model:      cfg.Model,
		MaxRetries: cfg.MaxRetries,
		Prompt:     prompt,
		Limits:     cfg.Limits,
		HttpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		Logger: logger,
	}

	switch cfg.Backend {
	case "openai":
		rio.OpenAI = true
		rio.OpenAIKey = apiKey
		rio.OpenAIBaseURL = cfg.OpenAI.BaseURL
		rio.RequestsPerMinute = cfg.RequestsPerMinute
	case "llama":
		rio.LlamaServer = cfg.Llama.Server
		rio.LlamaSeed = cfg.Llama.Seed
	case "ollama":
		rio.OllamaServer = cfg.Ollama.Server
	}

	return rio
}

func run(ctx context.Context) (*bpreader.Measurement, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	m, err := measureImage(ctx, cfg, logger)
	if err != nil {
		logger.Error("reading failed", "kind", bpreader.Kind(err), "err", err)
		return nil, err
	}
	return m, nil
}

func measureImage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bpreader.Measurement, error) {
	var apiKey string
	if cfg.Backend == "openai" {
		var err error
		if apiKey, err = bpreader.LoadAPIKey(cfg.EnvFile); err != nil {
			return nil, err
		}
	}

	prompt := bpreader.LoadPrompt(cfg.Prompts)
	if prompt.Source == bpreader.PromptDefault {
		logger.Warn("using default prompt", "path", cfg.Prompts, "reason", prompt.Reason)
	}

	r, err := bpreader.Init(initOptions(cfg, apiKey, prompt, logger))
	if err != nil {
		return nil, err
	}

	if *healthcheck && !r.IsHealthy(ctx) {
		return nil, fmt.Errorf("%w: %s server is not responding", bpreader.ErrRemoteCall, r.Name())
	}

	return measure(ctx, r, cfg.Image, *spinner)
}

func printMeasurement(w io.Writer, m *bpreader.Measurement) {
	fmt.Fprintf(w, "Systolic: %d\n", m.Systolic())
	fmt.Fprintf(w, "Diastolic: %d\n", m.Diastolic())
	if pulse, ok := m.Pulse(); ok {
		fmt.Fprintf(w, "Pulse: %d\n", pulse)
	}
	fmt.Fprintf(w, "Timestamp: %s\n", m.Timestamp().Format("2006-01-02 15:04:05"))
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	m, err := run(ctx)
	stop()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	printMeasurement(os.Stdout, m)
}
