package session

import (
	"errors"

	"learnassist/internal/domain"
)

// Message maps an operation error to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrRateLimited):
		return "Rate limit or quota exceeded. Please wait or check your plan."
	case errors.Is(err, domain.ErrIngest):
		return "Could not read PDF: " + err.Error()
	case errors.Is(err, domain.ErrNoQuestions):
		return "Could not generate questions. Try a different topic."
	case errors.Is(err, domain.ErrEmbedding):
		return "Embedding provider error: " + err.Error()
	case errors.Is(err, domain.ErrProvider):
		return "Model provider error: " + err.Error()
	case errors.Is(err, domain.ErrNoDocument):
		return "Upload a PDF first."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That action is not available right now."
	default:
		return "Error: " + err.Error()
	}
}
