package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned by Registry.Build for unregistered names.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrMissingModel is returned by builders given an empty model.
	ErrMissingModel = errors.New("llm model is required")

	// ErrMissingAPIKey is returned by builders whose backend needs a credential.
	ErrMissingAPIKey = errors.New("llm api key is required")

	// ErrNoJSON means a completion held no decodable JSON object.
	ErrNoJSON = errors.New("no json object in completion")
)

// StatusError is a non-2xx answer from a backend.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.Code, e.Body)
}
