package registry

import (
	"errors"
	"fmt"
	"strings"
)

var ErrRegistrySealed = errors.New("tool registry is sealed")

// NotFoundError is returned when a tool name has no registered declaration.
type NotFoundError struct {
	ToolName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown or unavailable tool: %s", e.ToolName)
}

// ValidationError lists every schema violation found in one set of arguments.
type ValidationError struct {
	ToolName string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.ToolName, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ToolFailure is returned by handlers whose call did not take effect. Text is
// shown to the model as is; Err is the cause kept for logs and traces.
type ToolFailure struct {
	Text string
	Err  error
}

func (e *ToolFailure) Error() string {
	if e.Err == nil {
		return e.Text
	}
	return e.Err.Error()
}

func (e *ToolFailure) Unwrap() error {
	return e.Err
}

// Fail wraps err so Execute reports the call as failed while the model sees text.
func Fail(text string, err error) (string, error) {
	return text, &ToolFailure{Text: text, Err: err}
}
