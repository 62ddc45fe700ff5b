package models

import "time"

// ChatMessageResponse defines the structure for messages returned by the chat history API endpoint.
type ChatMessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversationId"`
	Role           string    `json:"role"` // "user", "ai"
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationResponse is one entry of the history sidebar.
type ConversationResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
