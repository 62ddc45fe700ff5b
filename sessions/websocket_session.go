package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Desarso/stockagent/stores"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxFrameBytes = 64 << 10
	pongWait      = 60 * time.Second
	writeWait     = 10 * time.Second
)

// WebSocketWriter serialises writes to one connection.
type WebSocketWriter struct {
	Conn   *websocket.Conn
	Logger *zap.Logger
	mu     sync.Mutex
}

func (w *WebSocketWriter) write(frame interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.Conn.WriteJSON(frame)
}

func (w *WebSocketWriter) WriteResponse(resp ChatResponse) error {
	return w.write(ServerFrame{Type: FrameResponse, Response: resp.Response, ChatID: resp.ChatID})
}

func (w *WebSocketWriter) WriteError(message string) error {
	return w.write(ServerFrame{Error: message})
}

func (w *WebSocketWriter) WriteDone() error {
	return w.write(ServerFrame{Type: FrameDone})
}

func (w *WebSocketWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// AgentSession runs chat turns for one websocket connection, one at a time.
type AgentSession struct {
	Service   *ChatService
	SessionID string
	Writer    *WebSocketWriter
	Logger    *zap.Logger
	// PongWait bounds how long the connection may stay silent between turns.
	PongWait time.Duration
}

// Run reads client frames until the connection closes or ctx is cancelled.
func (as *AgentSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := as.Writer.Conn
	wait := as.pongWait()
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	go as.keepAlive(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				as.Logger.Debug("client closed connection")
				return nil
			}
			as.Logger.Warn("read failed", zap.Error(err))
			return err
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Malformed frames are reported and the connection stays open.
			if werr := as.Writer.WriteError("Mensaje inválido"); werr != nil {
				return werr
			}
			continue
		}
		if err := as.HandleFrame(ctx, frame); err != nil {
			return err
		}
		// Pongs queued during a long turn are only read after it, so the
		// deadline restarts here.
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return err
		}
	}
}

func (as *AgentSession) pongWait() time.Duration {
	if as.PongWait <= 0 {
		return pongWait
	}
	return as.PongWait
}

// HandleFrame runs one client frame. Only write failures are returned.
func (as *AgentSession) HandleFrame(ctx context.Context, frame ClientFrame) error {
	if frame.Type != "" && frame.Type != FrameMessage {
		return as.Writer.WriteError("Tipo de mensaje no soportado: " + frame.Type)
	}

	resp, err := as.Service.Send(ctx, frame.ChatRequest)
	if err != nil {
		as.Logger.Warn("chat turn failed", zap.Error(err))
		return as.Writer.WriteError(PublicError(err))
	}
	if err := as.Writer.WriteResponse(resp); err != nil {
		return &AgentError{Message: "failed to write response", Fatal: true}
	}
	return as.Writer.WriteDone()
}

func (as *AgentSession) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(as.pongWait() * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := as.Writer.ping(); err != nil {
				return
			}
		}
	}
}

// PublicError maps an error onto the text shown to chat clients.
func PublicError(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return ErrMissingFields.Error()
	case errors.Is(err, ErrInvalidUserID), errors.Is(err, ErrInvalidChatID):
		return err.Error()
	case errors.Is(err, ErrUnknownUser):
		return "Usuario no encontrado"
	case errors.Is(err, stores.ErrConversationNotFound):
		return "Conversación no encontrada"
	default:
		return "Error interno del servidor"
	}
}
