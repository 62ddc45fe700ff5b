package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Desarso/stockagent/models"
)

var (
	// ErrMissingFields is returned when userId, message, userName or userRole is absent.
	ErrMissingFields = errors.New("Faltan datos (userId, message, userName, userRole)")
	ErrInvalidUserID = errors.New("userId must be numeric")
	ErrInvalidChatID = errors.New("chatId must be a positive integer")
	// ErrUnknownUser means the user directory has no such user.
	ErrUnknownUser = errors.New("unknown user")
)

// AgentError represents errors that can occur during agent operations
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// TurnRunner is the part of the agent the chat glue depends on.
type TurnRunner interface {
	RunTurn(ctx context.Context, req models.TurnRequest) (models.TurnResult, error)
}

// FlexID decodes an identifier sent either as a JSON number or a JSON string.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s", string(data))
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// Int64 parses the id as a base-10 integer.
func (id FlexID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// ChatRequest is the body the chat UI posts for one message.
type ChatRequest struct {
	UserID   FlexID `json:"userId"`
	UserName string `json:"userName"`
	UserRole string `json:"userRole"`
	Message  string `json:"message"`
	ChatID   FlexID `json:"chatId,omitempty"`
}

// ChatResponse is what the UI expects back: the answer and the conversation it landed in.
type ChatResponse struct {
	Response string `json:"response"`
	ChatID   uint   `json:"chatId"`
}

// Validate checks the required fields and parses the identifiers.
func (r ChatRequest) Validate() (userID int64, chatID uint, err error) {
	if r.UserID == "" || strings.TrimSpace(r.Message) == "" ||
		strings.TrimSpace(r.UserName) == "" || strings.TrimSpace(r.UserRole) == "" {
		return 0, 0, ErrMissingFields
	}
	userID, err = r.UserID.Int64()
	if err != nil {
		return 0, 0, ErrInvalidUserID
	}
	if r.ChatID == "" || r.ChatID == "0" {
		return userID, 0, nil
	}
	parsed, err := strconv.ParseUint(string(r.ChatID), 10, 64)
	if err != nil || parsed == 0 {
		return 0, 0, ErrInvalidChatID
	}
	return userID, uint(parsed), nil
}

// Websocket frames.
const (
	FrameMessage  = "message"
	FrameResponse = "response"
	FrameDone     = "done"
)

// ClientFrame is one frame received from a websocket client.
type ClientFrame struct {
	Type string `json:"type"`
	ChatRequest
}

// ServerFrame is one frame sent to a websocket client.
type ServerFrame struct {
	Type     string `json:"type,omitempty"`
	Response string `json:"response,omitempty"`
	ChatID   uint   `json:"chatId,omitempty"`
	Error    string `json:"error,omitempty"`
}
