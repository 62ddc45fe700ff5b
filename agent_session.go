package stockagent

import (
	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/sessions"
	"github.com/Desarso/stockagent/stores"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Re-export session types so callers only need the root package
type AgentSession = sessions.AgentSession
type ChatService = sessions.ChatService
type ChatRequest = sessions.ChatRequest
type ChatResponse = sessions.ChatResponse
type WebSocketWriter = sessions.WebSocketWriter
type AgentError = sessions.AgentError
type FlexID = sessions.FlexID

// NewChatService wires the agent to a conversation store, sharing the agent's memory.
func NewChatService(agent *Agent, store *stores.GormStore, users inventory.UserDirectory) *ChatService {
	return sessions.NewChatService(agent, store, agent.Memory, users, agent.config.Logger)
}

func NewAgentSession(sessionID string, conn *websocket.Conn, service *ChatService, logger *zap.Logger) *AgentSession {
	return sessions.NewAgentSession(sessionID, conn, service, logger)
}
