// Package gemini adapts the Gemini API (google.golang.org/genai) to the agent's Model interface.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/Desarso/stockagent/models"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Gemini_Model struct {
	Model       string
	Temperature float32
	client      *genai.Client
}

// New creates a Gemini API client with an API key.
func New(ctx context.Context, apiKey, model string) (*Gemini_Model, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini_Model{Model: model, client: client}, nil
}

func (g *Gemini_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	system, contents := ToGeminiContents(request.Messages)
	temp := g.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
		Tools:       ToGeminiTools(request.Tools),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		return models.Model_Response{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return FromGeminiResponse(res)
}

// ToGeminiContents splits out the system instruction and groups the rest into
// Gemini contents. Consecutive tool results share one user content.
func ToGeminiContents(msgs []models.Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, msg.Content)
		case models.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case models.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		case models.RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.ToolName,
				Response: map[string]any{"output": msg.Content},
			}}
			if n := len(contents); n > 0 && isToolResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
			}
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func isToolResponse(c *genai.Content) bool {
	return c.Role == genai.RoleUser && len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

// ToGeminiTools wraps all declarations in a single Gemini tool.
func ToGeminiTools(decls []models.FunctionDeclaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, decl := range decls {
		fns = append(fns, &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  parametersSchema(decl.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

func parametersSchema(p models.Parameters) *genai.Schema {
	schema := &genai.Schema{
		Type:       schemaType(p.Type),
		Required:   p.Required,
		Properties: make(map[string]*genai.Schema, len(p.Properties)),
	}
	for name := range p.Properties {
		prop, _ := p.Property(name)
		schema.Properties[name] = propertySchema(prop)
	}
	return schema
}

func propertySchema(prop map[string]interface{}) *genai.Schema {
	s := &genai.Schema{}
	if t, ok := prop["type"].(string); ok {
		s.Type = schemaType(t)
	}
	if d, ok := prop["description"].(string); ok {
		s.Description = d
	}
	switch enum := prop["enum"].(type) {
	case []string:
		s.Enum = enum
	case []interface{}:
		for _, v := range enum {
			s.Enum = append(s.Enum, fmt.Sprint(v))
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeUnspecified
}

// FromGeminiResponse converts the first candidate into response parts.
func FromGeminiResponse(res *genai.GenerateContentResponse) (models.Model_Response, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return models.Model_Response{}, fmt.Errorf("gemini returned no candidates")
	}
	resp := models.Model_Response{}
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Thought {
			continue
		}
		if part.Text != "" {
			resp.Parts = append(resp.Parts, models.TextPart(part.Text))
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			resp.Parts = append(resp.Parts, models.CallPart(models.FunctionCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: args,
			}))
		}
	}
	return resp, nil
}
