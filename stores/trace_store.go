package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const maxTraceOutput = 4000

// ToolTrace records one tool call executed while answering a conversation turn.
// Indexed by conversation_id and tool_call_id for efficient retrieval
type ToolTrace struct {
	ID             uint           `gorm:"primarykey" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	ConversationID uint           `gorm:"index:idx_trace_conv;not null" json:"conversation_id"`
	ToolCallID     string         `gorm:"index:idx_trace_tool;size:64;not null" json:"tool_call_id"`
	Tool           string         `gorm:"size:64;not null" json:"tool"`
	Status         string         `gorm:"size:16;not null" json:"status"` // ok, invalid, failed, denied
	ArgumentsJSON  string         `gorm:"type:text" json:"-"`
	Arguments      map[string]any `gorm:"-" json:"arguments,omitempty"`
	Output         string         `gorm:"type:text" json:"output"`
	DurationMS     int64          `json:"duration_ms"`
}

// BeforeSave marshals Arguments to ArgumentsJSON and caps the stored output.
func (t *ToolTrace) BeforeSave(tx *gorm.DB) error {
	if t.Arguments != nil {
		data, err := json.Marshal(t.Arguments)
		if err != nil {
			return err
		}
		t.ArgumentsJSON = string(data)
	}
	if len(t.Output) > maxTraceOutput {
		t.Output = t.Output[:maxTraceOutput]
	}
	return nil
}

// AfterFind unmarshals ArgumentsJSON to Arguments
func (t *ToolTrace) AfterFind(tx *gorm.DB) error {
	if t.ArgumentsJSON != "" {
		return json.Unmarshal([]byte(t.ArgumentsJSON), &t.Arguments)
	}
	return nil
}

// TraceStore interface for trace persistence operations
type TraceStore interface {
	// SaveTraces saves multiple trace events in a batch
	SaveTraces(ctx context.Context, traces []*ToolTrace) error

	// GetTracesByConversation retrieves all traces for a conversation
	GetTracesByConversation(ctx context.Context, conversationID uint) ([]*ToolTrace, error)

	// GetTracesByToolCall retrieves all traces for a specific tool call
	GetTracesByToolCall(ctx context.Context, toolCallID string) ([]*ToolTrace, error)
}

// GORMTraceStore implements TraceStore for SQLite/PostgreSQL/MySQL via GORM
type GORMTraceStore struct {
	db *gorm.DB
}

// NewGORMTraceStore creates a trace store from an existing GORM database connection
func NewGORMTraceStore(db *gorm.DB) (*GORMTraceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(&ToolTrace{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tool_traces table: %w", err)
	}
	return &GORMTraceStore{db: db}, nil
}

// SaveTraces saves multiple trace events in a batch
func (s *GORMTraceStore) SaveTraces(ctx context.Context, traces []*ToolTrace) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if len(traces) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(traces, 100).Error
}

// GetTracesByConversation retrieves all traces for a conversation in execution order
func (s *GORMTraceStore) GetTracesByConversation(ctx context.Context, conversationID uint) ([]*ToolTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var traces []*ToolTrace
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&traces).Error
	return traces, err
}

// GetTracesByToolCall retrieves all traces for a specific tool call
func (s *GORMTraceStore) GetTracesByToolCall(ctx context.Context, toolCallID string) ([]*ToolTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var traces []*ToolTrace
	err := s.db.WithContext(ctx).Where("tool_call_id = ?", toolCallID).
		Order("id ASC").
		Find(&traces).Error
	return traces, err
}
