//go:generate go run go.uber.org/mock/mockgen -source=request_service.go -destination=../mocks/mock_request_service.go -package=mocks
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

	"github.com/samber/lo"
)

type IRequestService interface {
	CreateRequest(ctx context.Context, cmd domain.CreateRequestCommand) (domain.RequestView, error)
	ListPendingForReceiver(receiverID string) ([]domain.RequestView, error)
	RespondToRequest(ctx context.Context, cmd domain.RespondToRequestCommand) (domain.RequestResolution, error)
	CheckStatus(senderID, receiverID string) (domain.RequestCheck, error)
}

type RequestPolicy struct {
	MaxPending       int
	AllowRepeated    bool
	MaxContentLength int
}

type RequestService struct {
	requests      repositories.IRequestRepository
	conversations repositories.IConversationRepository
	directory     IUserDirectory
	emitter       contract.IEmitter
	censor        contract.ICensor
	search        contract.ISearchIndex
	locker        *PairLocker
	policy        RequestPolicy
	log           *slog.Logger
}

// NewRequestService accepts a nil censor or search index when those features are disabled.
func NewRequestService(
	requests repositories.IRequestRepository,
	conversations repositories.IConversationRepository,
	directory IUserDirectory,
	emitter contract.IEmitter,
	censor contract.ICensor,
	search contract.ISearchIndex,
	locker *PairLocker,
	policy RequestPolicy,
	log *slog.Logger,
) *RequestService {
	return &RequestService{
		requests:      requests,
		conversations: conversations,
		directory:     directory,
		emitter:       emitter,
		censor:        censor,
		search:        search,
		locker:        locker,
		policy:        policy,
		log:           log,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, cmd domain.CreateRequestCommand) (domain.RequestView, error) {
	request, err := domain.NewMessageRequest(cmd.SenderID, cmd.ReceiverID, cmd.Content, cmd.CreatedAt)
	if err != nil {
		return domain.RequestView{}, err
	}
	if err = domain.ValidateContent(cmd.Content, s.policy.MaxContentLength); err != nil {
		return domain.RequestView{}, err
	}
	request.Content = censorContent(s.censor, request.Content, s.log)

	unlock := s.locker.Lock(request.Pair())
	err = s.requests.Create(request, repositories.CreatePolicy{
		MaxPending:    s.policy.MaxPending,
		AllowRepeated: s.policy.AllowRepeated,
	})
	unlock()
	if err != nil {
		return domain.RequestView{}, fmt.Errorf("create request: %w", err)
	}
	s.log.Debug("Message request created", "request_id", request.ID, "sender_id", request.SenderID, "receiver_id", request.ReceiverID)

	view := domain.RequestView{
		MessageRequest: request,
		Sender:         s.directory.Summaries(request.SenderID)[request.SenderID],
	}
	emit(ctx, s.emitter, s.log, domain.UserRoom(request.ReceiverID), event.NewMessageRequest, event.NewMessageRequestPayload{Request: view})
	return view, nil
}

func (s *RequestService) ListPendingForReceiver(receiverID string) ([]domain.RequestView, error) {
	requests, err := s.requests.ListPendingForReceiver(receiverID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	senders := s.directory.Summaries(lo.Map(requests, func(r domain.MessageRequest, _ int) string {
		return r.SenderID
	})...)
	return lo.Map(requests, func(r domain.MessageRequest, _ int) domain.RequestView {
		return domain.RequestView{MessageRequest: r, Sender: senders[r.SenderID]}
	}), nil
}

// RespondToRequest accepts or declines a pending request on behalf of its receiver.
// Accepting creates the conversation, seeded with the request content as first message.
func (s *RequestService) RespondToRequest(ctx context.Context, cmd domain.RespondToRequestCommand) (domain.RequestResolution, error) {
	if !domain.IsValidID(cmd.RequestID) {
		return domain.RequestResolution{}, errors.ErrInvalidID
	}
	if cmd.Action != domain.ActionAccept && cmd.Action != domain.ActionDecline {
		return domain.RequestResolution{}, errors.ErrInvalidAction
	}
	request, err := s.requests.Get(cmd.RequestID)
	if err != nil {
		return domain.RequestResolution{}, err
	}
	if request.ReceiverID != cmd.ResponderID {
		return domain.RequestResolution{}, errors.ErrNotReceiver
	}

	unlock := s.locker.Lock(request.Pair())
	defer unlock()

	if cmd.Action == domain.ActionDecline {
		declined, err := s.requests.Decline(request.ID, cmd.ResponderID, cmd.RespondedAt)
		if err != nil {
			return domain.RequestResolution{}, fmt.Errorf("decline request: %w", err)
		}
		resolution := domain.RequestResolution{RequestID: declined.ID, Status: declined.Status}
		emit(ctx, s.emitter, s.log, domain.UserRoom(declined.SenderID), event.MessageRequestResponse, event.MessageRequestResponsePayload{
			RequestID: declined.ID,
			Status:    declined.Status,
		})
		return resolution, nil
	}

	conversation := domain.NewConversation(request.SenderID, request.ReceiverID, cmd.RespondedAt)
	first := domain.NewMessage(conversation.ID, request.SenderID, request.Content, cmd.RespondedAt)
	accepted, err := s.requests.Accept(request.ID, cmd.ResponderID, conversation, first)
	if err != nil {
		return domain.RequestResolution{}, fmt.Errorf("accept request: %w", err)
	}
	s.log.Info("Conversation created", "conversation_id", conversation.ID, "request_id", accepted.ID)
	indexMessage(s.search, first, s.log)

	resolution := domain.RequestResolution{RequestID: accepted.ID, Status: accepted.Status, ConversationID: &conversation.ID}
	emit(ctx, s.emitter, s.log, domain.UserRoom(accepted.SenderID), event.MessageRequestResponse, event.MessageRequestResponsePayload{
		RequestID:      accepted.ID,
		Status:         accepted.Status,
		ConversationID: &conversation.ID,
	})
	emit(ctx, s.emitter, s.log, domain.UserRoom(accepted.ReceiverID), event.ConversationCreated, event.ConversationCreatedPayload{
		ConversationID: conversation.ID,
	})
	return resolution, nil
}

// CheckStatus tells the sender where it stands with receiverID.
func (s *RequestService) CheckStatus(senderID, receiverID string) (domain.RequestCheck, error) {
	if !domain.IsValidID(receiverID) || receiverID == senderID {
		return domain.RequestCheck{}, errors.ErrInvalidTarget
	}
	conversation, err := s.conversations.FindByPair(domain.NewPair(senderID, receiverID))
	if err != nil {
		return domain.RequestCheck{}, err
	}
	if conversation != nil {
		return domain.RequestCheck{Status: domain.CheckAccepted, ConversationID: &conversation.ID}, nil
	}
	requests, err := s.requests.ListForPair(senderID, receiverID)
	if err != nil {
		return domain.RequestCheck{}, err
	}
	if lo.ContainsBy(requests, func(r domain.MessageRequest) bool { return r.Status == domain.StatusPending }) {
		return domain.RequestCheck{Status: domain.CheckPending}, nil
	}
	return domain.RequestCheck{Status: domain.CheckNone}, nil
}

// emit never fails the caller: the write already happened.
func emit(ctx context.Context, emitter contract.IEmitter, log *slog.Logger, room domain.RoomID, name event.Name, payload any) {
	if err := emitter.Emit(ctx, room, name, payload); err != nil {
		log.Warn("Unable to emit event", "room", room, "event", name, "error", err)
	}
}

func censorContent(censor contract.ICensor, content string, log *slog.Logger) string {
	if censor == nil {
		return content
	}
	censored, words := censor.Censor(content)
	if len(words) > 0 {
		log.Debug("Content censored", "words", len(words))
	}
	return censored
}

func indexMessage(search contract.ISearchIndex, message domain.Message, log *slog.Logger) {
	if search == nil {
		return
	}
	if err := search.Index(message); err != nil {
		log.Warn("Unable to index message", "message_id", message.ID, "error", err)
	}
}
