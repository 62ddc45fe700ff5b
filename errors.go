package stockagent

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable wraps timeouts, rate limits and transport errors from the model.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrIterationLimitExceeded means the model kept calling tools past the iteration cap.
	ErrIterationLimitExceeded = errors.New("iteration limit exceeded")

	ErrEmptyMessage = errors.New("message is empty")
	ErrMissingUser  = errors.New("user id is required")
)

// ToolExecutionFailedError reports a tool call that did not complete. The turn
// still produces an answer; earlier successful updates are not rolled back.
type ToolExecutionFailedError struct {
	ToolName string
	Detail   string
}

func (e *ToolExecutionFailedError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.ToolName, e.Detail)
}

// Texts shown to the user when a turn degrades.
const (
	apologyModelUnavailable = "Lo siento, no pude comunicarme con el asistente en este momento. Intenta de nuevo en unos minutos."
	apologyIterationLimit   = "Lo siento, no pude completar tu solicitud. Intenta reformular la pregunta o dividirla en pasos más pequeños."
	apologyEmptyResponse    = "Lo siento, no obtuve una respuesta. ¿Podrías repetir tu pregunta?"
)
