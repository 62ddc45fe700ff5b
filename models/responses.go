package models

import (
	"strings"
	"time"
)

type Model_Response struct {
	Parts []Model_Part `json:"parts"`
}

//may be a string or a function call and it will be parts

type FunctionCall struct {
	ID   string                 `json:"id,omitempty"` // Unique ID for this specific call instance
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type Model_Part struct {
	Text         *string       `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Model_Part {
	return Model_Part{Text: &text}
}

// CallPart builds a function call part.
func CallPart(call FunctionCall) Model_Part {
	return Model_Part{FunctionCall: &call}
}

// Text concatenates every text part of the response.
func (r Model_Response) Text() string {
	var sb strings.Builder
	for _, part := range r.Parts {
		if part.Text != nil {
			sb.WriteString(*part.Text)
		}
	}
	return sb.String()
}

// FunctionCalls returns the function calls in emitted order.
func (r Model_Response) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, part := range r.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, *part.FunctionCall)
		}
	}
	return calls
}

type ToolStatus string

const (
	ToolStatusOK      ToolStatus = "ok"
	ToolStatusInvalid ToolStatus = "invalid"
	ToolStatusFailed  ToolStatus = "failed"
	ToolStatusDenied  ToolStatus = "denied"
)

// ToolOutcome records one tool call executed during a turn.
type ToolOutcome struct {
	Call     FunctionCall  `json:"call"`
	Output   string        `json:"output"`
	Status   ToolStatus    `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// TurnResult is the outcome of one reasoning-loop execution. Answer is always set;
// Failure is non-nil when the answer is degraded or some tool call failed.
type TurnResult struct {
	Answer     string        `json:"answer"`
	Iterations int           `json:"iterations"`
	ToolCalls  []ToolOutcome `json:"tool_calls,omitempty"`
	Failure    error         `json:"-"`
	Committed  bool          `json:"committed"`
}

// FailedTools lists the tool calls that did not complete successfully.
func (r TurnResult) FailedTools() []ToolOutcome {
	var failed []ToolOutcome
	for _, outcome := range r.ToolCalls {
		if outcome.Status != ToolStatusOK {
			failed = append(failed, outcome)
		}
	}
	return failed
}
