package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Generator submits one prompt to a text-generation model and returns its text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrMissingCredential is a configuration error raised at construction.
	ErrMissingCredential = errors.New("llm credential is required")
	// ErrMissingModel is a configuration error raised at construction.
	ErrMissingModel = errors.New("llm model is required")
	// ErrGeneration wraps every provider-side failure.
	ErrGeneration = errors.New("generation failed")
	// ErrUnauthorized marks rejected or invalid credentials.
	ErrUnauthorized = errors.New("llm credential rejected")
	// ErrEmptyResponse means the provider answered without text.
	ErrEmptyResponse = errors.New("llm returned empty response")
	// ErrNotConfigured is returned by Unconfigured.
	ErrNotConfigured = errors.New("llm provider not configured")
)

// Usage carries token accounting when the provider reports it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Unconfigured is used when no credential is available at startup. Every call
// fails so the configuration error is reported again at call time.
type Unconfigured struct {
	Reason error
}

// Complete always fails.
func (u Unconfigured) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	if u.Reason != nil {
		return "", errors.Join(ErrGeneration, ErrNotConfigured, u.Reason)
	}
	return "", errors.Join(ErrGeneration, ErrNotConfigured)
}

// HashPrompt returns a stable fingerprint so prompts can be correlated in logs
// without logging their content.
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
