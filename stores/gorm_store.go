package stores

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore implements ConversationStore on any GORM dialect.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection and migrates the transcript tables.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(&Conversation{}, &Message{}, &ToolTrace{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// DB exposes the underlying connection for collaborators sharing it.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Traces returns a trace store on the same connection.
func (s *GormStore) Traces() *GORMTraceStore {
	return &GORMTraceStore{db: s.db}
}

// Close closes the database connection
func (s *GormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *GormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// ListConversations returns the user's conversations, newest first.
func (s *GormStore) ListConversations(ctx context.Context, userID int64) ([]ConversationInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var convos []Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id_conversacion DESC").
		Find(&convos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for user %d: %w", userID, err)
	}

	infos := make([]ConversationInfo, 0, len(convos))
	for _, c := range convos {
		infos = append(infos, ConversationInfo{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
	}
	return infos, nil
}

// ListMessages returns the transcript in creation order.
func (s *GormStore) ListMessages(ctx context.Context, conversationID uint) ([]Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("conversacion_id = ?", conversationID).
		Order("created_at ASC").
		Order("id_mensaje ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}

func (s *GormStore) GetConversation(ctx context.Context, conversationID uint) (*Conversation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var conv Conversation
	if err := s.db.WithContext(ctx).First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation %d: %w", conversationID, err)
	}
	return &conv, nil
}

// CreateConversation creates a new conversation record
func (s *GormStore) CreateConversation(ctx context.Context, userID int64, title string) (uint, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}
	if title == "" {
		title = DefaultTitle
	}

	conv := Conversation{UserID: userID, Title: title}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv.ID, nil
}

// AppendMessage adds one message to an existing conversation.
func (s *GormStore) AppendMessage(ctx context.Context, conversationID uint, role, content string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if role != RoleUser && role != RoleAI {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Conversation{}).Where("id_conversacion = ?", conversationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check conversation %d: %w", conversationID, err)
		}
		if count == 0 {
			return ErrConversationNotFound
		}

		msg := Message{ConversationID: conversationID, Role: role, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to create message record: %w", err)
		}
		return nil
	})
}

// DeleteConversation removes the conversation with its messages and traces.
func (s *GormStore) DeleteConversation(ctx context.Context, conversationID uint) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&ToolTrace{}).Error; err != nil {
			return fmt.Errorf("failed to delete tool traces: %w", err)
		}
		if err := tx.Where("conversacion_id = ?", conversationID).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		res := tx.Where("id_conversacion = ?", conversationID).Delete(&Conversation{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
}
