package bpreader

import (
	"encoding/base64"
	"fmt"
	"os"
)

// EncodeImage returns the contents of the file at path as standard base64.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode image: %w", ErrImageProcessing, err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
