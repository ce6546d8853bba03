package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

const defaultMessageLimit = 200

type MessageService struct {
	store *directory.Store
}

func NewMessageService(store *directory.Store) *MessageService {
	return &MessageService{store: store}
}

// Send appends a message to a channel and, as a side effect, refreshes the
// sender's LastSeenAt. A failed freshness write does not fail the send.
func (s *MessageService) Send(ctx context.Context, sender *domain.Identity, channelID, body string) (*domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}

	if _, err := s.store.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}

	symbols := sender.SymbolList()
	symbol := ""
	if len(symbols) > 0 {
		symbol = symbols[0]
	}

	now := time.Now()
	msg := &domain.ChatMessage{
		ID:           uuid.New(),
		ChannelID:    channelID,
		SenderKey:    sender.Key,
		SenderName:   sender.DisplayName,
		SenderSymbol: symbol,
		Body:         body,
		SentAt:       now,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if _, err := s.store.PatchIdentity(ctx, sender.Key, domain.IdentityPatch{LastSeenAt: &now}); err != nil {
		return msg, nil
	}
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, channelID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}
	if _, err := s.store.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, channelID, limit)
}
