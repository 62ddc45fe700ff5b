// Package ollama adapts the Ollama chat API (local or Ollama cloud) to the agent's Model interface.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Desarso/stockagent/models"
	"github.com/ollama/ollama/api"
)

const (
	DefaultBaseURL      = "https://ollama.com"
	DefaultModel        = "nemotron-3-nano:30b-cloud"
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Ollama_Model sends non-streaming chat requests with tool declarations.
type Ollama_Model struct {
	Model       string
	Temperature float64
	// MaxRetries bounds extra attempts after a failed call. Chat calls have no
	// side effects, so repeating one is safe.
	MaxRetries   int
	RetryBackoff time.Duration
	client       *api.Client
}

// bearerTransport adds the Ollama cloud API key to every request.
type bearerTransport struct {
	key  string
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.key)
	return t.base.RoundTrip(req)
}

// New creates an adapter. An empty apiKey talks to an unauthenticated local server.
func New(baseURL, apiKey, model string) (*Ollama_Model, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}
	httpClient := &http.Client{}
	if apiKey != "" {
		httpClient.Transport = &bearerTransport{key: apiKey, base: http.DefaultTransport}
	}
	return &Ollama_Model{
		Model:        model,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
		client:       api.NewClient(parsed, httpClient),
	}, nil
}

func (o *Ollama_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    o.Model,
		Messages: ToOllamaMessages(request.Messages),
		Tools:    ToOllamaTools(request.Tools),
		Stream:   &stream,
		Options:  map[string]any{"temperature": o.Temperature},
	}

	var err error
	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.Model_Response{}, fmt.Errorf("ollama chat failed: %w", err)
			case <-time.After(o.RetryBackoff * time.Duration(attempt)):
			}
		}

		var final api.ChatResponse
		err = o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			final.Message.Content += resp.Message.Content
			final.Message.ToolCalls = append(final.Message.ToolCalls, resp.Message.ToolCalls...)
			return nil
		})
		if err == nil {
			return FromOllamaMessage(final.Message), nil
		}
		if !retryable(ctx, err) {
			break
		}
	}
	return models.Model_Response{}, fmt.Errorf("ollama chat failed: %w", err)
}

// retryable reports whether another attempt could succeed. Client errors other
// than rate limiting will fail the same way again.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var status api.StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= http.StatusInternalServerError || status.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// ToOllamaMessages converts the loop's transcript to Ollama messages.
func ToOllamaMessages(msgs []models.Message) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		m := api.Message{Role: msg.Role, Content: msg.Content}
		if msg.Role == models.RoleTool {
			m.ToolName = msg.ToolName
		}
		for _, call := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      call.Name,
					Arguments: api.ToolCallFunctionArguments(call.Args),
				},
			})
		}
		out = append(out, m)
	}
	return out
}

// ToOllamaTools converts tool declarations to Ollama's tool schema.
func ToOllamaTools(decls []models.FunctionDeclaration) api.Tools {
	if len(decls) == 0 {
		return nil
	}
	tools := make(api.Tools, 0, len(decls))
	for _, decl := range decls {
		params := api.ToolFunctionParameters{
			Type:       decl.Parameters.Type,
			Required:   decl.Parameters.Required,
			Properties: make(map[string]api.ToolProperty, len(decl.Parameters.Properties)),
		}
		for name := range decl.Parameters.Properties {
			prop, _ := decl.Parameters.Property(name)
			params.Properties[name] = toolProperty(prop)
		}
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

func toolProperty(prop map[string]interface{}) api.ToolProperty {
	out := api.ToolProperty{}
	if t, ok := prop["type"].(string); ok {
		out.Type = api.PropertyType{t}
	}
	if d, ok := prop["description"].(string); ok {
		out.Description = d
	}
	switch enum := prop["enum"].(type) {
	case []string:
		for _, v := range enum {
			out.Enum = append(out.Enum, v)
		}
	case []interface{}:
		out.Enum = enum
	}
	return out
}

// FromOllamaMessage converts the assistant message into response parts. Ollama
// does not assign call ids, so the agent fills them in.
func FromOllamaMessage(msg api.Message) models.Model_Response {
	resp := models.Model_Response{}
	if msg.Content != "" {
		resp.Parts = append(resp.Parts, models.TextPart(msg.Content))
	}
	for _, call := range msg.ToolCalls {
		args := map[string]interface{}(call.Function.Arguments)
		if args == nil {
			args = map[string]interface{}{}
		}
		resp.Parts = append(resp.Parts, models.CallPart(models.FunctionCall{
			Name: call.Function.Name,
			Args: args,
		}))
	}
	return resp
}
