package analyzer

import "context"

// MaxResponseTokens caps the length of the model's reply. The expected reply
// is a handful of characters.
const MaxResponseTokens = 300

// Analyzer reads a blood pressure monitor display using a specific vision
// LLM.
type Analyzer interface {
	// Name returns the name of the backend, e.g. "openai" or "ollama"
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string

	// Analyze sends the base64 encoded image together with prompt and returns
	// the raw text of the model's reply. The provided ctx is used as a parent
	// context for the request to the LLM server.
	Analyze(ctx context.Context, imageB64, prompt string) (string, error)

	// IsHealthy returns whether the LLM server is reachable.
	IsHealthy(ctx context.Context) bool
}

// DataURI embeds a base64 encoded image in a data URI. The payload is always
// labelled JPEG whatever the file format.
func DataURI(b64 string) string {
	return "data:image/jpeg;base64," + b64
}
