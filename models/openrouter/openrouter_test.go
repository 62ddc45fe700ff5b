package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Desarso/stockagent/models"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOpenAIMessages(t *testing.T) {
	call := models.FunctionCall{ID: "c1", Name: "update_product", Args: map[string]interface{}{"id": 7}}
	msgs, err := ToOpenAIMessages([]models.Message{
		models.SystemMessage("sys"),
		models.UserMessage("pon 3"),
		{Role: models.RoleAssistant, ToolCalls: []models.FunctionCall{call}},
		models.ToolMessage(call, "ok"),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "c1", msgs[2].ToolCalls[0].ID)
	assert.JSONEq(t, `{"id":7}`, msgs[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
}

func TestToOpenAITools(t *testing.T) {
	tools := ToOpenAITools([]models.FunctionDeclaration{{
		Name: "search_products",
		Parameters: models.Parameters{
			Type:       "object",
			Properties: map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			Required:   []string{"query"},
		},
	}})
	require.Len(t, tools, 1)

	raw, err := json.Marshal(tools[0].Function.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`, string(raw))
}

func TestFromOpenAIMessage_MalformedArguments(t *testing.T) {
	resp, err := FromOpenAIMessage(openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: "a", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "list_suppliers", Arguments: "{"}},
			{ID: "b", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "search_machines", Arguments: `{"type":"torno"}`}},
		},
	})
	require.NoError(t, err)

	calls := resp.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Args)
	assert.Equal(t, "torno", calls[1].Args["type"])
}

func TestModelRequest(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Listo"},
			}},
		})
	}))
	defer srv.Close()

	m := New(srv.URL, "key", "", "https://inventario.example", "Inventario")
	resp, err := m.Model_Request(context.Background(), models.Model_Request{
		Messages: []models.Message{models.UserMessage("hola")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Listo", resp.Text())
	assert.Equal(t, "https://inventario.example", gotReferer)
}
