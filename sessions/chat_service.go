package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/memory"
	"github.com/Desarso/stockagent/models"
	"github.com/Desarso/stockagent/stores"
	"go.uber.org/zap"
)

const titleMaxRunes = 60

// ChatService turns chat requests into agent turns and keeps the durable
// transcript in step with the agent's short-term memory.
type ChatService struct {
	Agent  TurnRunner
	Store  stores.ConversationStore
	Memory *memory.Manager
	// Traces and Users are optional.
	Traces stores.TraceStore
	Users  inventory.UserDirectory
	Logger *zap.Logger

	locks conversationLocks
}

// Send runs one chat message end to end. Conversations are created on the
// first message; existing ones must belong to the caller.
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	userID, chatID, err := req.Validate()
	if err != nil {
		return ChatResponse{}, err
	}
	log := s.logger().With(zap.Int64("user_id", userID))

	if s.Users != nil {
		if _, err := s.Users.FindUser(ctx, userID); err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				return ChatResponse{}, ErrUnknownUser
			}
			return ChatResponse{}, fmt.Errorf("failed to look up user: %w", err)
		}
	}

	if chatID == 0 {
		chatID, err = s.Store.CreateConversation(ctx, userID, Title(req.Message))
		if err != nil {
			return ChatResponse{}, fmt.Errorf("failed to create conversation: %w", err)
		}
		log.Info("conversation created", zap.Uint("conversation_id", chatID))
	} else if err := s.checkOwner(ctx, userID, chatID); err != nil {
		return ChatResponse{}, err
	}
	log = log.With(zap.Uint("conversation_id", chatID))

	// Held from hydration to the stored answer; the agent's thread lock alone
	// would let two sends interleave their user and ai rows.
	unlock := s.locks.lock(chatID)
	defer unlock()

	threadID := memory.ThreadKey(chatID, req.UserID.String())
	if err := s.hydrate(ctx, threadID, chatID); err != nil {
		log.Warn("failed to hydrate memory", zap.Error(err))
	}

	if err := s.Store.AppendMessage(ctx, chatID, stores.RoleUser, req.Message); err != nil {
		return ChatResponse{}, fmt.Errorf("failed to save user message: %w", err)
	}

	result, err := s.Agent.RunTurn(ctx, models.TurnRequest{
		ThreadID: threadID,
		UserID:   req.UserID.String(),
		UserName: req.UserName,
		UserRole: req.UserRole,
		Message:  req.Message,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to run turn: %w", err)
	}
	if result.Failure != nil {
		log.Warn("turn degraded", zap.Error(result.Failure))
	}

	// Degraded answers are stored too so the transcript keeps alternating.
	if err := s.Store.AppendMessage(ctx, chatID, stores.RoleAI, result.Answer); err != nil {
		return ChatResponse{}, fmt.Errorf("failed to save answer: %w", err)
	}
	s.saveTraces(ctx, log, chatID, result.ToolCalls)

	return ChatResponse{Response: result.Answer, ChatID: chatID}, nil
}

// History lists the caller's conversations, newest first.
func (s *ChatService) History(ctx context.Context, userID int64) ([]models.ConversationResponse, error) {
	infos, err := s.Store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	out := make([]models.ConversationResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, models.ConversationResponse{ID: info.ID, Title: info.Title, CreatedAt: info.CreatedAt})
	}
	return out, nil
}

// Messages returns one conversation's transcript in chronological order.
func (s *ChatService) Messages(ctx context.Context, userID int64, chatID uint) ([]models.ChatMessageResponse, error) {
	if err := s.checkOwner(ctx, userID, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.Store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	out := make([]models.ChatMessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, models.ChatMessageResponse{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			Role:           msg.Role,
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes a conversation and forgets its memory thread.
func (s *ChatService) Delete(ctx context.Context, userID int64, chatID uint) error {
	if err := s.checkOwner(ctx, userID, chatID); err != nil {
		return err
	}
	unlock := s.locks.lock(chatID)
	defer unlock()

	if err := s.Store.DeleteConversation(ctx, chatID); err != nil {
		return err
	}
	if s.Memory != nil {
		threadID := memory.ThreadKey(chatID, strconv.FormatInt(userID, 10))
		if err := s.Memory.Evict(ctx, threadID); err != nil {
			s.logger().Warn("failed to evict memory thread", zap.String("thread_id", threadID), zap.Error(err))
		}
	}
	return nil
}

// Title derives a conversation title from its first message.
func Title(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if message == "" {
		return stores.DefaultTitle
	}
	if utf8.RuneCountInString(message) <= titleMaxRunes {
		return message
	}
	runes := []rune(message)
	return strings.TrimSpace(string(runes[:titleMaxRunes])) + "…"
}

func (s *ChatService) checkOwner(ctx context.Context, userID int64, chatID uint) error {
	conv, err := s.Store.GetConversation(ctx, chatID)
	if err != nil {
		return err
	}
	if conv.UserID != userID {
		return stores.ErrConversationNotFound
	}
	return nil
}

// hydrate seeds an empty memory thread from the stored transcript, so a
// restarted process picks the conversation up where it left off.
func (s *ChatService) hydrate(ctx context.Context, threadID string, chatID uint) error {
	if s.Memory == nil {
		return nil
	}
	current, err := s.Memory.GetContext(ctx, threadID)
	if err != nil {
		return err
	}
	if len(current) > 0 {
		return nil
	}
	stored, err := s.Store.ListMessages(ctx, chatID)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}
	if issues := stores.DetectCorruptedHistory(stored); len(issues) > 0 {
		s.logger().Debug("stored transcript needs sanitising",
			zap.Uint("conversation_id", chatID), zap.Strings("issues", issues))
	}
	_, err = s.Memory.Seed(ctx, threadID, stores.ToModelMessages(stores.SanitizeHistory(stored)))
	return err
}

func (s *ChatService) saveTraces(ctx context.Context, log *zap.Logger, chatID uint, outcomes []models.ToolOutcome) {
	if s.Traces == nil || len(outcomes) == 0 {
		return
	}
	traces := make([]*stores.ToolTrace, 0, len(outcomes))
	for _, outcome := range outcomes {
		traces = append(traces, &stores.ToolTrace{
			ConversationID: chatID,
			ToolCallID:     outcome.Call.ID,
			Tool:           outcome.Call.Name,
			Status:         string(outcome.Status),
			Arguments:      outcome.Call.Args,
			Output:         outcome.Output,
			DurationMS:     outcome.Duration.Milliseconds(),
		})
	}
	if err := s.Traces.SaveTraces(ctx, traces); err != nil {
		log.Warn("failed to save tool traces", zap.Error(err))
	}
}

func (s *ChatService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
