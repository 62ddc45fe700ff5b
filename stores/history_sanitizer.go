package stores

import (
	"github.com/Desarso/stockagent/models"
	"go.uber.org/zap"
)

// SanitizeHistory makes a persisted transcript safe to replay into model memory.
// The result always starts with a user message, strictly alternates user -> ai,
// and ends with an ai message. Transcripts written by this service already have
// that shape; older rows, crashes between the two writes of a turn, or manual
// edits can break it:
// 1. leading ai messages (truncated history) are skipped
// 2. consecutive user messages keep only the last one (the earlier ones were never answered)
// 3. consecutive ai messages keep only the first one
// 4. a trailing user message without an answer is dropped
func SanitizeHistory(msgs []Message) []Message {
	if len(msgs) == 0 {
		return msgs
	}
	log := zap.L().Named("history_sanitizer")

	start := -1
	for i, msg := range msgs {
		if msg.Role == RoleUser {
			start = i
			break
		}
	}
	if start == -1 {
		log.Debug("no user message in history, returning empty history")
		return []Message{}
	}
	if start > 0 {
		log.Debug("skipping leading messages to find a valid start", zap.Int("skipped", start))
	}

	result := make([]Message, 0, len(msgs)-start)
	for i := start; i < len(msgs); i++ {
		msg := msgs[i]
		switch msg.Role {
		case RoleUser:
			if n := len(result); n > 0 && result[n-1].Role == RoleUser {
				log.Debug("dropping unanswered user message", zap.Uint("message_id", result[n-1].ID))
				result[n-1] = msg
				continue
			}
			result = append(result, msg)
		case RoleAI:
			if result[len(result)-1].Role == RoleAI {
				log.Debug("dropping repeated ai message", zap.Uint("message_id", msg.ID))
				continue
			}
			result = append(result, msg)
		default:
			log.Warn("unknown message role, skipping", zap.String("role", msg.Role), zap.Uint("message_id", msg.ID))
		}
	}

	if n := len(result); n > 0 && result[n-1].Role == RoleUser {
		result = result[:n-1]
	}

	if removed := len(msgs) - len(result); removed > 0 {
		log.Debug("sanitized history", zap.Int("removed", removed))
	}
	return result
}

// DetectCorruptedHistory checks if the transcript breaks user -> ai alternation.
// Returns a list of issues found (empty if history is clean).
func DetectCorruptedHistory(msgs []Message) []string {
	issues := []string{}

	if len(msgs) == 0 {
		return issues
	}

	if msgs[0].Role == RoleAI {
		issues = append(issues, "History starts with an ai message")
	}

	for i := 1; i < len(msgs); i++ {
		prev := msgs[i-1]
		curr := msgs[i]
		if prev.Role == RoleUser && curr.Role == RoleUser {
			issues = append(issues, "Two consecutive user messages")
		}
		if prev.Role == RoleAI && curr.Role == RoleAI {
			issues = append(issues, "Two consecutive ai messages")
		}
	}

	for _, msg := range msgs {
		if msg.Role != RoleUser && msg.Role != RoleAI {
			issues = append(issues, "Unknown role "+msg.Role)
		}
	}

	if msgs[len(msgs)-1].Role == RoleUser {
		issues = append(issues, "Trailing user message without answer")
	}

	return issues
}

// ToModelMessages maps the persisted vocabulary (user, ai) onto model roles.
func ToModelMessages(msgs []Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			out = append(out, models.UserMessage(msg.Content))
		case RoleAI:
			out = append(out, models.AssistantMessage(msg.Content))
		}
	}
	return out
}

// PersistedRole maps a model role onto the store vocabulary.
func PersistedRole(role string) (string, bool) {
	switch role {
	case models.RoleUser:
		return RoleUser, true
	case models.RoleAssistant:
		return RoleAI, true
	}
	return "", false
}
