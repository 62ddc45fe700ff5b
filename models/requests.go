package models

// Model_Request is what the agent hands to a model adapter on every iteration.
type Model_Request struct {
	Messages []Message            `json:"messages"`
	Tools    []FunctionDeclaration `json:"tools,omitempty"`
}

// TurnRequest is one inbound user message addressed to a memory thread.
type TurnRequest struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	UserRole string `json:"user_role"`
	Message  string `json:"message"`
}
