package conversation

import (
	"context"

	"valoris-backend/internal/shared/telemetry"
)

// Service runs one chat turn: record the user message, relay it with context
// to the remote assistant, and fall back to a local reply when the relay
// fails. A nil client means every reply is generated locally.
type Service struct {
	Store  *Store
	Client ChatClient
}

func NewService(store *Store, client ChatClient) *Service {
	return &Service{Store: store, Client: client}
}

// Respond handles one user message for fileID. The returned bool reports
// whether the reply came from the remote assistant. Chat never fails the
// request: any relay error degrades to a local fallback reply.
func (s *Service) Respond(ctx context.Context, fileID, message string) (ChatMessage, bool, error) {
	chatCtx := s.Store.GetChatContext(fileID)
	history := s.Store.History(fileID)

	s.Store.AddChatMessage(fileID, ChatMessage{
		Role:    RoleUser,
		Content: message,
		Context: &MessageContext{FileID: fileID},
	})

	reply, relayed := s.reply(ctx, fileID, message, chatCtx, history)

	assistant := ChatMessage{
		Role:    RoleAssistant,
		Content: reply,
		Context: &MessageContext{
			FileID:            fileID,
			SavingsCalculated: chatCtx.TotalSavings,
		},
	}
	s.Store.AddChatMessage(fileID, assistant)
	return assistant, relayed, nil
}

func (s *Service) reply(ctx context.Context, fileID, message string, chatCtx ChatContext, history []ChatMessage) (string, bool) {
	if s.Client == nil {
		return FallbackReply(message, chatCtx), false
	}

	reply, err := s.Client.Send(ctx, message, chatCtx, history)
	if err != nil {
		telemetry.Error("chat.relay_failed", map[string]any{
			"file_id": fileID,
			"error":   err.Error(),
		})
		return FallbackReply(message, chatCtx), false
	}
	return reply, true
}
