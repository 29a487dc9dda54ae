package bpreader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	APIKeyEnv    = "OPENAI_API_KEY"
	apiKeyPrefix = "sk-"
)

// LoadAPIKey loads environment variables from envPath, then returns the
// OpenAI API key. If envPath is empty a .env file in the working directory is
// used when present. Variables already set in the process take precedence
// over the file.
func LoadAPIKey(envPath string) (string, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w at: %s", ErrEnvFileNotFound, envPath)
			}
			return "", fmt.Errorf("%w: %w", ErrCredential, err)
		}
		if err := godotenv.Load(envPath); err != nil {
			return "", fmt.Errorf("%w: loading %s: %w", ErrCredential, envPath, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: loading .env: %w", ErrCredential, err)
	}

	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return "", ErrAPIKeyMissing
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return "", ErrAPIKeyFormat
	}

	return key, nil
}
