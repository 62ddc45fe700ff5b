// Package openrouter talks to OpenRouter or any other OpenAI-compatible chat endpoint.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Desarso/stockagent/models"
	openai "github.com/sashabaranov/go-openai"
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel      = "openai/gpt-4o-mini"
)

// OpenRouter_Model implements the agent's Model interface for OpenRouter.
type OpenRouter_Model struct {
	Model       string
	Temperature float32
	MaxTokens   int
	SiteURL     string // Optional: sent as HTTP-Referer for OpenRouter rankings
	SiteName    string // Optional: sent as X-Title
	client      *openai.Client
}

// headerTransport sets OpenRouter's attribution headers.
type headerTransport struct {
	siteURL  string
	siteName string
	base     http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.siteURL != "" {
		req.Header.Set("HTTP-Referer", t.siteURL)
	}
	if t.siteName != "" {
		req.Header.Set("X-Title", t.siteName)
	}
	return t.base.RoundTrip(req)
}

// New creates an adapter. baseURL defaults to OpenRouter.
func New(baseURL, apiKey, model, siteURL, siteName string) *OpenRouter_Model {
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{siteURL: siteURL, siteName: siteName, base: http.DefaultTransport},
	}
	return &OpenRouter_Model{
		Model:    model,
		SiteURL:  siteURL,
		SiteName: siteName,
		client:   openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenRouter_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	messages, err := ToOpenAIMessages(request.Messages)
	if err != nil {
		return models.Model_Response{}, err
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    messages,
		Tools:       ToOpenAITools(request.Tools),
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
	})
	if err != nil {
		return models.Model_Response{}, fmt.Errorf("openrouter chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Model_Response{}, fmt.Errorf("openrouter returned no choices")
	}
	return FromOpenAIMessage(resp.Choices[0].Message)
}

// ToOpenAIMessages converts the loop's transcript to chat completion messages.
func ToOpenAIMessages(msgs []models.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		m := openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
		switch msg.Role {
		case models.RoleSystem:
			m.Role = openai.ChatMessageRoleSystem
		case models.RoleUser:
			m.Role = openai.ChatMessageRoleUser
		case models.RoleAssistant:
			m.Role = openai.ChatMessageRoleAssistant
		case models.RoleTool:
			m.Role = openai.ChatMessageRoleTool
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.ToolName
		}
		for _, call := range msg.ToolCalls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal arguments for %s: %w", call.Name, err)
			}
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, m)
	}
	return out, nil
}

// ToOpenAITools converts tool declarations; Parameters marshal as JSON Schema.
func ToOpenAITools(decls []models.FunctionDeclaration) []openai.Tool {
	if len(decls) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(decls))
	for _, decl := range decls {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  decl.Parameters,
			},
		})
	}
	return tools
}

// FromOpenAIMessage converts the assistant message. Malformed argument JSON is
// passed on as an empty map so validation reports the missing fields.
func FromOpenAIMessage(msg openai.ChatCompletionMessage) (models.Model_Response, error) {
	resp := models.Model_Response{}
	if msg.Content != "" {
		resp.Parts = append(resp.Parts, models.TextPart(msg.Content))
	}
	for _, call := range msg.ToolCalls {
		args := map[string]interface{}{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{}
			}
		}
		resp.Parts = append(resp.Parts, models.CallPart(models.FunctionCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: args,
		}))
	}
	return resp, nil
}
