package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrIngest reports a PDF that could not be parsed or held no text.
	ErrIngest = errors.New("ingest failed")
	// ErrEmbedding reports an embedding provider failure.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrProvider reports a text-generation provider failure.
	ErrProvider = errors.New("generation provider error")
	// ErrRateLimited is wrapped together with ErrEmbedding or ErrProvider
	// when the provider rejected the call for quota or rate reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoQuestions is returned when a quiz reply held no parseable question.
	ErrNoQuestions = errors.New("no questions generated")
	// ErrNoDocument is returned for Q&A actions before a document is indexed.
	ErrNoDocument = errors.New("no document indexed")
	// ErrInvalidTransition is returned for events the current state does not accept.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// ProviderError wraps a provider failure with its family sentinel and,
// when applicable, ErrRateLimited.
type ProviderError struct {
	Kind        error
	RateLimited bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("%v: %v: %v", e.Kind, ErrRateLimited, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.RateLimited {
		errs = append(errs, ErrRateLimited)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// EmbeddingFailure classifies err as an embedding provider error.
func EmbeddingFailure(err error) error {
	return classify(ErrEmbedding, err)
}

// GenerationFailure classifies err as a generation provider error.
func GenerationFailure(err error) error {
	return classify(ErrProvider, err)
}

// StatusFailure builds a provider error from an HTTP status.
func StatusFailure(kind error, status int, detail string) error {
	return &ProviderError{
		Kind:        kind,
		RateLimited: status == http.StatusTooManyRequests,
		Err:         fmt.Errorf("status %d: %s", status, detail),
	}
}

func classify(kind, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Kind: kind, RateLimited: looksRateLimited(err), Err: err}
}

func looksRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "rate_limit", "quota", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
