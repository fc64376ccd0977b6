//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"context"
	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type IConversationService interface {
	ListConversations(userID string) ([]domain.ConversationView, error)
	ListMessages(conversationID, requesterID string) ([]domain.MessageView, error)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.MessageView, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
	SearchMessages(cmd domain.SearchMessagesCommand) ([]domain.MessageView, error)
	CanJoin(conversationID, userID string) error
}

type ConversationService struct {
	conversations    repositories.IConversationRepository
	messages         repositories.IMessageRepository
	directory        IUserDirectory
	emitter          contract.IEmitter
	censor           contract.ICensor
	search           contract.ISearchIndex
	maxContentLength int
	log              *slog.Logger
}

// NewConversationService accepts a nil censor or search index when those features are disabled.
func NewConversationService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	directory IUserDirectory,
	emitter contract.IEmitter,
	censor contract.ICensor,
	search contract.ISearchIndex,
	maxContentLength int,
	log *slog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations:    conversations,
		messages:         messages,
		directory:        directory,
		emitter:          emitter,
		censor:           censor,
		search:           search,
		maxContentLength: maxContentLength,
		log:              log,
	}
}

func (s *ConversationService) ListConversations(userID string) ([]domain.ConversationView, error) {
	conversations, err := s.conversations.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	lastIDs := lo.FilterMap(conversations, func(c domain.Conversation, _ int) (string, bool) {
		return lo.FromPtr(c.LastMessageID), c.LastMessageID != nil
	})
	lastMessages, err := s.messages.GetMany(lastIDs)
	if err != nil {
		return nil, fmt.Errorf("load last messages: %w", err)
	}
	byID := lo.KeyBy(lastMessages, func(m domain.Message) string { return m.ID })
	users := s.directory.Summaries(lo.Uniq(lo.FlatMap(conversations, func(c domain.Conversation, _ int) []string {
		return c.Participants
	}))...)

	return lo.Map(conversations, func(c domain.Conversation, _ int) domain.ConversationView {
		view := domain.ConversationView{
			ID:           c.ID,
			Participants: lo.Map(c.Participants, func(id string, _ int) domain.UserSummary { return users[id] }),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
		if c.LastMessageID != nil {
			if last, ok := byID[*c.LastMessageID]; ok {
				view.LastMessage = &last
			}
		}
		return view
	}), nil
}

func (s *ConversationService) ListMessages(conversationID, requesterID string) ([]domain.MessageView, error) {
	if _, err := s.authorize(conversationID, requesterID); err != nil {
		return nil, err
	}
	messages, err := s.messages.List(conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return s.views(messages), nil
}

// SendMessage persists the message then fans it out to the conversation room and to each participant's
// personal room, so a participant who never joined the conversation room still receives it.
func (s *ConversationService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.MessageView, error) {
	if !domain.IsValidID(cmd.ConversationID) {
		return domain.MessageView{}, errors.ErrInvalidID
	}
	if err := domain.ValidateContent(cmd.Content, s.maxContentLength); err != nil {
		return domain.MessageView{}, err
	}
	content := censorContent(s.censor, cmd.Content, s.log)

	message, conversation, err := s.messages.Append(domain.NewMessage(cmd.ConversationID, cmd.SenderID, content, cmd.CreatedAt))
	if err != nil {
		return domain.MessageView{}, fmt.Errorf("send message: %w", err)
	}
	indexMessage(s.search, message, s.log)

	view := s.views([]domain.Message{message})[0]
	payload := event.NewMessagePayload{ConversationID: conversation.ID, Message: view}
	emit(ctx, s.emitter, s.log, domain.ConversationRoom(conversation.ID), event.NewMessage, payload)
	for _, participant := range conversation.Participants {
		emit(ctx, s.emitter, s.log, domain.UserRoom(participant), event.NewMessage, payload)
	}
	return view, nil
}

// MarkRead flags the messages received by readerID as read and notifies the other participant.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	conversation, err := s.authorize(conversationID, readerID)
	if err != nil {
		return 0, err
	}
	count, err := s.messages.MarkRead(conversationID, readerID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if count > 0 {
		emit(ctx, s.emitter, s.log, domain.UserRoom(conversation.Other(readerID)), event.MessagesRead, event.MessagesReadPayload{
			ConversationID: conversationID,
			ReaderID:       readerID,
			Count:          count,
		})
	}
	return count, nil
}

// SearchMessages returns the matching messages of one conversation, best match first.
func (s *ConversationService) SearchMessages(cmd domain.SearchMessagesCommand) ([]domain.MessageView, error) {
	if s.search == nil {
		return nil, errors.ErrSearchDisabled
	}
	query := strings.TrimSpace(cmd.Query)
	if query == "" {
		return nil, errors.ErrEmptyQuery
	}
	if _, err := s.authorize(cmd.ConversationID, cmd.RequesterID); err != nil {
		return nil, err
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	ids, err := s.search.Search(cmd.ConversationID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	messages, err := s.messages.GetMany(ids)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	messages = lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.ConversationID == cmd.ConversationID
	})
	return s.views(messages), nil
}

func (s *ConversationService) CanJoin(conversationID, userID string) error {
	_, err := s.authorize(conversationID, userID)
	return err
}

func (s *ConversationService) authorize(conversationID, userID string) (domain.Conversation, error) {
	if !domain.IsValidID(conversationID) {
		return domain.Conversation{}, errors.ErrInvalidID
	}
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(userID) {
		return domain.Conversation{}, errors.ErrNotParticipant
	}
	return conversation, nil
}

func (s *ConversationService) views(messages []domain.Message) []domain.MessageView {
	senders := s.directory.Summaries(lo.Uniq(lo.Map(messages, func(m domain.Message, _ int) string {
		return m.SenderID
	}))...)
	return lo.Map(messages, func(m domain.Message, _ int) domain.MessageView {
		return domain.MessageView{Message: m, Sender: senders[m.SenderID]}
	})
}
