package bpreader

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvFileNotFound is returned when an explicit env file path does not
	// exist.
	ErrEnvFileNotFound = errors.New("environment file not found")

	// ErrCredential is the parent of every API key error.
	ErrCredential    = errors.New("credential error")
	ErrAPIKeyMissing = fmt.Errorf("%w: OpenAI API key not found in environment variables", ErrCredential)
	ErrAPIKeyFormat  = fmt.Errorf("%w: invalid OpenAI API key format", ErrCredential)

	// ErrImageProcessing covers reading the image and talking to the model.
	ErrImageProcessing = errors.New("image processing error")
	ErrRemoteCall      = errors.New("remote analysis failed")

	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidReadings   = errors.New("invalid blood pressure readings detected")
)

// ResponseError is returned when the model's reply cannot be turned into a
// Measurement, either because it does not parse or because the readings are
// implausible.
type ResponseError struct {
	Response string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("failed to parse response %q: %s", e.Response, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// Kind names the category an error returned by this package falls into. It
// returns "unknown" for errors that did not originate here.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEnvFileNotFound):
		return "config"
	case errors.Is(err, ErrCredential):
		return "credential"
	case errors.Is(err, ErrRemoteCall):
		return "remote"
	case errors.Is(err, ErrImageProcessing):
		return "image"
	case errors.Is(err, ErrMalformedResponse):
		return "parse"
	case errors.Is(err, ErrInvalidReadings):
		return "validation"
	}
	return "unknown"
}
