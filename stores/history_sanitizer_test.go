package stores

import (
	"testing"

	"github.com/Desarso/stockagent/models"
)

func roles(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestSanitizeHistory_EmptyHistory(t *testing.T) {
	msgs := []Message{}
	result := SanitizeHistory(msgs)
	if len(result) != 0 {
		t.Errorf("Expected empty result, got %d messages", len(result))
	}
}

func TestSanitizeHistory_ValidHistory(t *testing.T) {
	msgs := []Message{
		{Role: "user"},
		{Role: "ai"},
		{Role: "user"},
		{Role: "ai"},
	}
	result := SanitizeHistory(msgs)
	if len(result) != 4 {
		t.Errorf("Expected 4 messages, got %d", len(result))
	}
}

func TestSanitizeHistory_LeadingAIMessage(t *testing.T) {
	msgs := []Message{
		{Role: "ai"}, // truncated - should be skipped
		{Role: "user"},
		{Role: "ai"},
	}
	result := SanitizeHistory(msgs)
	if len(result) != 2 {
		t.Errorf("Expected 2 messages (skipping leading ai), got %d", len(result))
	}
	if result[0].Role != "user" {
		t.Errorf("Expected first message to be user, got %s", result[0].Role)
	}
}

func TestSanitizeHistory_ConsecutiveUserMessages(t *testing.T) {
	// Simulates a crash after the user message was saved but before the answer
	msgs := []Message{
		{ID: 1, Role: "user", Content: "hola"},
		{ID: 2, Role: "user", Content: "¿hay tornillos?"},
		{ID: 3, Role: "ai", Content: "Sí"},
	}
	result := SanitizeHistory(msgs)
	if len(result) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result))
	}
	if result[0].ID != 2 {
		t.Errorf("Expected the answered user message to be kept, got id %d", result[0].ID)
	}
}

func TestSanitizeHistory_TrailingUserMessage(t *testing.T) {
	msgs := []Message{
		{Role: "user"},
		{Role: "ai"},
		{Role: "user"}, // unanswered - should be removed
	}
	result := SanitizeHistory(msgs)
	if len(result) != 2 {
		t.Errorf("Expected 2 messages (removing unanswered user message), got %d", len(result))
	}
	if result[len(result)-1].Role != "ai" {
		t.Errorf("Expected last message to be ai, got %s", result[len(result)-1].Role)
	}
}

func TestSanitizeHistory_RepeatedAIMessages(t *testing.T) {
	msgs := []Message{
		{ID: 1, Role: "user"},
		{ID: 2, Role: "ai"},
		{ID: 3, Role: "ai"},
	}
	result := SanitizeHistory(msgs)
	if len(result) != 2 || result[1].ID != 2 {
		t.Errorf("Expected [user, first ai], got %v", roles(result))
	}
}

func TestSanitizeHistory_OnlyAIMessages(t *testing.T) {
	msgs := []Message{
		{Role: "ai"},
		{Role: "ai"},
	}
	result := SanitizeHistory(msgs)
	if len(result) != 0 {
		t.Errorf("Expected empty result for history without user messages, got %d", len(result))
	}
}

func TestSanitizeHistory_Alternates(t *testing.T) {
	msgs := []Message{
		{Role: "ai"}, {Role: "user"}, {Role: "user"}, {Role: "ai"}, {Role: "ai"},
		{Role: "system"}, {Role: "user"}, {Role: "ai"}, {Role: "user"},
	}
	result := SanitizeHistory(msgs)
	if issues := DetectCorruptedHistory(result); len(issues) != 0 {
		t.Errorf("Expected clean history after sanitizing, got issues %v (roles %v)", issues, roles(result))
	}
}

func TestDetectCorruptedHistory_CleanHistory(t *testing.T) {
	msgs := []Message{
		{Role: "user"},
		{Role: "ai"},
	}
	issues := DetectCorruptedHistory(msgs)
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
}

func TestDetectCorruptedHistory_Issues(t *testing.T) {
	msgs := []Message{
		{Role: "ai"},
		{Role: "user"},
		{Role: "user"},
	}
	issues := DetectCorruptedHistory(msgs)
	if len(issues) != 3 {
		t.Errorf("Expected 3 issues, got %d: %v", len(issues), issues)
	}
}

func TestToModelMessages(t *testing.T) {
	out := ToModelMessages([]Message{
		{Role: "user", Content: "hola"},
		{Role: "ai", Content: "¡Hola!"},
	})
	if len(out) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(out))
	}
	if out[0].Role != models.RoleUser || out[1].Role != models.RoleAssistant {
		t.Errorf("Unexpected roles %s, %s", out[0].Role, out[1].Role)
	}
	if out[1].Content != "¡Hola!" {
		t.Errorf("Content not preserved: %q", out[1].Content)
	}
}

func TestPersistedRole(t *testing.T) {
	if r, ok := PersistedRole(models.RoleAssistant); !ok || r != RoleAI {
		t.Errorf("assistant should map to ai, got %q", r)
	}
	if _, ok := PersistedRole(models.RoleTool); ok {
		t.Error("tool messages are never persisted")
	}
}
