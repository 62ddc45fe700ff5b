package sessions

import (
	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/memory"
	"github.com/Desarso/stockagent/stores"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NewAgentSession creates a new WebSocket agent session
func NewAgentSession(sessionID string, conn *websocket.Conn, service *ChatService, logger *zap.Logger) *AgentSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ws").With(zap.String("session_id", sessionID))
	return &AgentSession{
		Service:   service,
		SessionID: sessionID,
		Writer:    &WebSocketWriter{Conn: conn, Logger: logger},
		Logger:    logger,
		PongWait:  pongWait,
	}
}

// NewChatService creates the chat glue over a GORM-backed store. users may be nil.
func NewChatService(agent TurnRunner, store *stores.GormStore, mem *memory.Manager, users inventory.UserDirectory, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		Agent:  agent,
		Store:  store,
		Memory: mem,
		Traces: store.Traces(),
		Users:  users,
		Logger: logger.Named("chat"),
	}
}
