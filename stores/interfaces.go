package stores

import (
	"context"
	"errors"
	"time"
)

// Persisted roles. The store's vocabulary is narrower than the agent's.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

const DefaultTitle = "Nueva conversación"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidRole          = errors.New("invalid message role")
)

// Conversation holds metadata for a chat conversation
type Conversation struct {
	ID        uint      `gorm:"column:id_conversacion;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;index;not null" json:"userId"`
	Title     string    `gorm:"column:titulo;size:255;not null;default:'Nueva conversación'" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	Messages  []Message `gorm:"foreignKey:ConversationID;references:ID" json:"-"`
}

func (Conversation) TableName() string { return "conversaciones" }

// Message is one persisted turn half. Rows are append-only.
type Message struct {
	ID             uint      `gorm:"column:id_mensaje;primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"column:conversacion_id;index;not null" json:"conversationId"`
	Role           string    `gorm:"column:role;size:10;not null" json:"role"` // "user", "ai"
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Message) TableName() string { return "mensajes" }

// ConversationInfo holds basic conversation metadata for listing
type ConversationInfo struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationStore is the durable transcript log.
type ConversationStore interface {
	ListConversations(ctx context.Context, userID int64) ([]ConversationInfo, error)
	ListMessages(ctx context.Context, conversationID uint) ([]Message, error)
	GetConversation(ctx context.Context, conversationID uint) (*Conversation, error)
	CreateConversation(ctx context.Context, userID int64, title string) (uint, error)
	AppendMessage(ctx context.Context, conversationID uint, role, content string) error
	// DeleteConversation removes the conversation, its messages and its traces in one transaction.
	DeleteConversation(ctx context.Context, conversationID uint) error

	Ping() error
	Close() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres", "mysql"
	Connection string            `json:"connection"` // connection string
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
