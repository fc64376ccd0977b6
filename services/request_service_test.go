package services

import (
	"context"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/repositories"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func createCmd(sender, receiver, content string) domain.CreateRequestCommand {
	return domain.CreateRequestCommand{SenderID: sender, ReceiverID: receiver, Content: content, CreatedAt: time.Now().UTC()}
}

func respondCmd(requestID, responder string, action domain.Action) domain.RespondToRequestCommand {
	return domain.RespondToRequestCommand{RequestID: requestID, ResponderID: responder, Action: action, RespondedAt: time.Now().UTC()}
}

func TestRequestService_CreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist the request and notify the receiver", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		var payload any
		f.emitter.EXPECT().
			Emit(gomock.Any(), domain.UserRoom(bob), event.NewMessageRequest, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.RoomID, _ event.Name, p any) error {
				payload = p
				return nil
			}).
			Times(1)

		view, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)
		req.Equal(domain.StatusPending, view.Status)
		req.Equal("alice", view.Sender.Username)
		req.Equal(event.NewMessageRequestPayload{Request: view}, payload)

		pending, err := f.requests.ListPendingForReceiver(bob)
		req.NoError(err)
		req.Len(pending, 1)
		req.Equal(view.ID, pending[0].ID)
		req.Equal("alice", pending[0].Sender.Username)
	})

	t.Run("should reject invalid targets and contents without writing", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		alice := f.user(t, "alice")
		f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := f.requests.CreateRequest(ctx, createCmd(alice, alice, "hi"))
		req.ErrorIs(err, errors.ErrInvalidTarget)

		_, err = f.requests.CreateRequest(ctx, createCmd(alice, "not-a-user", "hi"))
		req.ErrorIs(err, errors.ErrInvalidTarget)

		_, err = f.requests.CreateRequest(ctx, createCmd(alice, uuid.NewString(), "   "))
		req.ErrorIs(err, errors.ErrEmptyContent)

		_, err = f.requests.CreateRequest(ctx, createCmd(alice, uuid.NewString(), strings.Repeat("a", 2001)))
		req.ErrorIs(err, errors.ErrContentTooLong)
	})

	t.Run("should reject a duplicate request", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)
		_, err = f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi again"))
		req.ErrorIs(err, errors.ErrDuplicateRequest)
	})

	t.Run("should rate limit the fourth pending request", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		// Given 3 pending requests from alice to bob
		for i := 0; i < 3; i++ {
			request, err := domain.NewMessageRequest(alice, bob, fmt.Sprintf("hi #%d", i), time.Now().UTC())
			req.NoError(err)
			req.NoError(f.requestRepository.Create(request, repositories.CreatePolicy{AllowRepeated: true}))
		}

		// When alice sends a fourth one
		_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi #4"))

		// Then it is rate limited
		req.ErrorIs(err, errors.ErrRateLimited)
	})

	t.Run("should only rate limit when repeated requests are allowed", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		opts := defaultOptions()
		opts.policy.AllowRepeated = true
		f := newFixture(t, ctrl, opts)
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		for i := 0; i < 3; i++ {
			_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
			req.NoError(err)
		}
		_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.ErrorIs(err, errors.ErrRateLimited)
	})

	t.Run("should succeed even when the notification fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("gateway down"))

		_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)
	})

	t.Run("should summarise an unknown sender by its id", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		stranger, bob := uuid.NewString(), f.user(t, "bob")

		view, err := f.requests.CreateRequest(ctx, createCmd(stranger, bob, "hi"))
		req.NoError(err)
		req.Equal(domain.UserSummary{ID: stranger}, view.Sender)
	})

	t.Run("should accept a single request under concurrent creation", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			req.ErrorIs(err, errors.ErrDuplicateRequest)
		}
		req.Equal(1, succeeded)
	})
}

func TestRequestService_RespondToRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("should open a conversation seeded with the request content", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		f.emitter.EXPECT().Emit(gomock.Any(), domain.UserRoom(bob), event.NewMessageRequest, gomock.Any()).Return(nil)
		request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)

		var created event.ConversationCreatedPayload
		var response event.MessageRequestResponsePayload
		f.emitter.EXPECT().
			Emit(gomock.Any(), domain.UserRoom(alice), event.MessageRequestResponse, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.RoomID, _ event.Name, p any) error {
				response = p.(event.MessageRequestResponsePayload)
				return nil
			})
		f.emitter.EXPECT().
			Emit(gomock.Any(), domain.UserRoom(bob), event.ConversationCreated, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.RoomID, _ event.Name, p any) error {
				created = p.(event.ConversationCreatedPayload)
				return nil
			})

		// When bob accepts
		resolution, err := f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionAccept))
		req.NoError(err)
		req.Equal(domain.StatusAccepted, resolution.Status)
		req.NotNil(resolution.ConversationID)
		req.Equal(*resolution.ConversationID, created.ConversationID)
		req.Equal(domain.StatusAccepted, response.Status)
		req.Equal(resolution.ConversationID, response.ConversationID)

		// Then both participants see the conversation with "hi" as last message
		for _, user := range []string{alice, bob} {
			conversations, err := f.conversations.ListConversations(user)
			req.NoError(err)
			req.Len(conversations, 1)
			req.Equal(*resolution.ConversationID, conversations[0].ID)
			req.ElementsMatch([]string{"alice", "bob"}, []string{conversations[0].Participants[0].Username, conversations[0].Participants[1].Username})
			req.NotNil(conversations[0].LastMessage)
			req.Equal("hi", conversations[0].LastMessage.Content)
			req.Equal(alice, conversations[0].LastMessage.SenderID)
		}

		pending, err := f.requests.ListPendingForReceiver(bob)
		req.NoError(err)
		req.Empty(pending)

		// And no new request can be created for the pair, in either direction
		_, err = f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.ErrorIs(err, errors.ErrAlreadyConversing)
		_, err = f.requests.CreateRequest(ctx, createCmd(bob, alice, "hi"))
		req.ErrorIs(err, errors.ErrAlreadyConversing)
	})

	t.Run("should notify only the sender of a decline", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		f.emitter.EXPECT().Emit(gomock.Any(), domain.UserRoom(bob), event.NewMessageRequest, gomock.Any()).Return(nil)
		request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)

		f.emitter.EXPECT().
			Emit(gomock.Any(), domain.UserRoom(alice), event.MessageRequestResponse, event.MessageRequestResponsePayload{
				RequestID: request.ID,
				Status:    domain.StatusDeclined,
			}).
			Return(nil).
			Times(1)

		resolution, err := f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionDecline))
		req.NoError(err)
		req.Equal(domain.StatusDeclined, resolution.Status)
		req.Nil(resolution.ConversationID)

		conversations, err := f.conversations.ListConversations(alice)
		req.NoError(err)
		req.Empty(conversations)
	})

	t.Run("should keep the status monotonic", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)

		_, err = f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionDecline))
		req.NoError(err)

		_, err = f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionAccept))
		req.ErrorIs(err, errors.ErrAlreadyHandled)
		_, err = f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionDecline))
		req.ErrorIs(err, errors.ErrAlreadyHandled)

		stored, err := f.requestRepository.Get(request.ID)
		req.NoError(err)
		req.Equal(domain.StatusDeclined, stored.Status)
	})

	t.Run("should reject invalid responses", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
		req.NoError(err)

		_, err = f.requests.RespondToRequest(ctx, respondCmd("nope", bob, domain.ActionAccept))
		req.ErrorIs(err, errors.ErrInvalidID)

		_, err = f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.Action("maybe")))
		req.ErrorIs(err, errors.ErrInvalidAction)

		_, err = f.requests.RespondToRequest(ctx, respondCmd(uuid.NewString(), bob, domain.ActionAccept))
		req.ErrorIs(err, errors.ErrRequestNotFound)

		// The sender cannot accept its own request
		_, err = f.requests.RespondToRequest(ctx, respondCmd(request.ID, alice, domain.ActionAccept))
		req.ErrorIs(err, errors.ErrNotReceiver)
		req.Equal(errors.KindForbidden, errors.KindOf(err))
	})
}

func TestRequestService_CheckStatus(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl, defaultOptions())
	f.ignoreEmits()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	check, err := f.requests.CheckStatus(alice, bob)
	req.NoError(err)
	req.Equal(domain.RequestCheck{Status: domain.CheckNone}, check)

	request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
	req.NoError(err)
	check, err = f.requests.CheckStatus(alice, bob)
	req.NoError(err)
	req.Equal(domain.CheckPending, check.Status)

	resolution, err := f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionAccept))
	req.NoError(err)
	check, err = f.requests.CheckStatus(bob, alice)
	req.NoError(err)
	req.Equal(domain.CheckAccepted, check.Status)
	req.Equal(resolution.ConversationID, check.ConversationID)

	_, err = f.requests.CheckStatus(alice, alice)
	req.ErrorIs(err, errors.ErrInvalidTarget)
}
