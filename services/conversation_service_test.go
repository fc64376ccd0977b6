package services

import (
	"context"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/mocks"
	"dm-lab/repositories"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// openConversation runs the whole request workflow between two new users.
func openConversation(t *testing.T, f *fixture) (alice, bob, conversationID string) {
	ctx := context.Background()
	alice, bob = f.user(t, "alice"), f.user(t, "bob")
	request, err := f.requests.CreateRequest(ctx, createCmd(alice, bob, "hi"))
	require.NoError(t, err)
	resolution, err := f.requests.RespondToRequest(ctx, respondCmd(request.ID, bob, domain.ActionAccept))
	require.NoError(t, err)
	return alice, bob, *resolution.ConversationID
}

func sendCmd(conversationID, sender, content string) domain.SendMessageCommand {
	return domain.SendMessageCommand{ConversationID: conversationID, SenderID: sender, Content: content, CreatedAt: time.Now().UTC()}
}

func TestConversationService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should append the message and fan it out to every room", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Not(event.NewMessage), gomock.Any()).Return(nil).AnyTimes()
		alice, bob, conversationID := openConversation(t, f)

		rooms := map[domain.RoomID]int{}
		f.emitter.EXPECT().
			Emit(gomock.Any(), gomock.Any(), event.NewMessage, gomock.Any()).
			DoAndReturn(func(_ context.Context, room domain.RoomID, _ event.Name, p any) error {
				rooms[room]++
				req.Equal("how are you?", p.(event.NewMessagePayload).Message.Content)
				req.Equal("bob", p.(event.NewMessagePayload).Message.Sender.Username)
				return nil
			}).
			Times(3)

		view, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, bob, "how are you?"))
		req.NoError(err)
		req.Equal(map[domain.RoomID]int{
			domain.ConversationRoom(conversationID): 1,
			domain.UserRoom(alice):                  1,
			domain.UserRoom(bob):                    1,
		}, rooms)

		// Then the new message is the last one listed
		messages, err := f.conversations.ListMessages(conversationID, alice)
		req.NoError(err)
		req.Len(messages, 2)
		req.Equal("hi", messages[0].Content)
		req.Equal(view.ID, messages[1].ID)
		req.Equal("alice", messages[0].Sender.Username)
	})

	t.Run("should survive each failing emission", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Not(event.NewMessage), gomock.Any()).Return(nil).AnyTimes()
		_, bob, conversationID := openConversation(t, f)

		f.emitter.EXPECT().
			Emit(gomock.Any(), gomock.Any(), event.NewMessage, gomock.Any()).
			Return(fmt.Errorf("room unavailable")).
			Times(3)

		_, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, bob, "still stored"))
		req.NoError(err)
	})

	t.Run("should forbid outsiders", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		_, _, conversationID := openConversation(t, f)
		clara := f.user(t, "clara")

		_, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, clara, "let me in"))
		req.ErrorIs(err, errors.ErrNotParticipant)

		_, err = f.conversations.ListMessages(conversationID, clara)
		req.ErrorIs(err, errors.ErrNotParticipant)

		req.ErrorIs(f.conversations.CanJoin(conversationID, clara), errors.ErrNotParticipant)
	})

	t.Run("should validate the input", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())
		f.ignoreEmits()
		alice, _, conversationID := openConversation(t, f)

		_, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, alice, " \n\t"))
		req.ErrorIs(err, errors.ErrEmptyContent)

		_, err = f.conversations.SendMessage(ctx, sendCmd("42", alice, "hello"))
		req.ErrorIs(err, errors.ErrInvalidID)

		_, err = f.conversations.SendMessage(ctx, sendCmd(uuid.NewString(), alice, "hello"))
		req.ErrorIs(err, errors.ErrConversationNotFound)

		_, err = f.conversations.ListMessages(uuid.NewString(), alice)
		req.ErrorIs(err, errors.ErrConversationNotFound)
	})

	t.Run("should censor the content before storing it", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		censor := mocks.NewMockICensor(ctrl)
		opts := defaultOptions()
		opts.censor = censor
		f := newFixture(t, ctrl, opts)
		f.ignoreEmits()

		censor.EXPECT().Censor("hi").Return("hi", nil)
		alice, _, conversationID := openConversation(t, f)

		censor.EXPECT().Censor("you badger").Return("you ******", []string{"badger"})
		view, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, alice, "you badger"))
		req.NoError(err)
		req.Equal("you ******", view.Content)
	})
}

func TestConversationService_MarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl, defaultOptions())
	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Not(event.MessagesRead), gomock.Any()).Return(nil).AnyTimes()
	alice, bob, conversationID := openConversation(t, f)

	// Given alice sent "hi" and one more message
	_, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, alice, "are you there?"))
	req.NoError(err)

	f.emitter.EXPECT().
		Emit(gomock.Any(), domain.UserRoom(alice), event.MessagesRead, event.MessagesReadPayload{
			ConversationID: conversationID,
			ReaderID:       bob,
			Count:          2,
		}).
		Return(nil).
		Times(1)

	// When bob reads twice
	count, err := f.conversations.MarkRead(ctx, conversationID, bob)
	req.NoError(err)
	req.Equal(2, count)
	count, err = f.conversations.MarkRead(ctx, conversationID, bob)
	req.NoError(err)
	req.Zero(count)

	messages, err := f.conversations.ListMessages(conversationID, alice)
	req.NoError(err)
	for _, m := range messages {
		req.True(m.IsRead)
	}

	_, err = f.conversations.MarkRead(ctx, conversationID, uuid.NewString())
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestConversationService_ListConversations(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl, defaultOptions())
	f.ignoreEmits()

	alice, _, withBob := openConversation(t, f)
	clara := f.user(t, "clara")
	request, err := f.requests.CreateRequest(ctx, createCmd(clara, alice, "yo"))
	req.NoError(err)
	resolution, err := f.requests.RespondToRequest(ctx, respondCmd(request.ID, alice, domain.ActionAccept))
	req.NoError(err)

	conversations, err := f.conversations.ListConversations(alice)
	req.NoError(err)
	req.Len(conversations, 2)
	req.Equal(*resolution.ConversationID, conversations[0].ID)

	_, err = f.conversations.SendMessage(ctx, sendCmd(withBob, alice, "back to you"))
	req.NoError(err)

	conversations, err = f.conversations.ListConversations(alice)
	req.NoError(err)
	req.Equal(withBob, conversations[0].ID)
	req.Equal("back to you", conversations[0].LastMessage.Content)

	empty, err := f.conversations.ListConversations(uuid.NewString())
	req.NoError(err)
	req.Empty(empty)
}

func TestConversationService_SearchMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("should answer unavailable when search is disabled", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, defaultOptions())

		_, err := f.conversations.SearchMessages(domain.SearchMessagesCommand{ConversationID: uuid.NewString(), Query: "hi"})
		req.ErrorIs(err, errors.ErrSearchDisabled)
	})

	t.Run("should only find messages of the conversation", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		index, err := repositories.OpenMessageIndex(t.TempDir(), slog.New(slog.DiscardHandler))
		req.NoError(err)
		defer index.Close()
		opts := defaultOptions()
		opts.search = index
		f := newFixture(t, ctrl, opts)
		f.ignoreEmits()

		alice, bob, conversationID := openConversation(t, f)
		pizza, err := f.conversations.SendMessage(ctx, sendCmd(conversationID, bob, "pizza tonight?"))
		req.NoError(err)
		_, err = f.conversations.SendMessage(ctx, sendCmd(conversationID, alice, "sushi instead"))
		req.NoError(err)

		found, err := f.conversations.SearchMessages(domain.SearchMessagesCommand{ConversationID: conversationID, RequesterID: alice, Query: "pizza"})
		req.NoError(err)
		req.Len(found, 1)
		req.Equal(pizza.ID, found[0].ID)
		req.Equal("bob", found[0].Sender.Username)

		// The first message comes from the accepted request
		found, err = f.conversations.SearchMessages(domain.SearchMessagesCommand{ConversationID: conversationID, RequesterID: bob, Query: "hi"})
		req.NoError(err)
		req.Len(found, 1)

		_, err = f.conversations.SearchMessages(domain.SearchMessagesCommand{ConversationID: conversationID, RequesterID: alice, Query: "  "})
		req.ErrorIs(err, errors.ErrEmptyQuery)

		_, err = f.conversations.SearchMessages(domain.SearchMessagesCommand{ConversationID: conversationID, RequesterID: uuid.NewString(), Query: "pizza"})
		req.ErrorIs(err, errors.ErrNotParticipant)
	})
}

func TestPairLocker(t *testing.T) {
	req := require.New(t)
	locker := NewPairLocker()
	pair := domain.NewPair(uuid.NewString(), uuid.NewString())

	unlock := locker.Lock(pair)
	req.Equal(1, locker.Len())

	acquired := make(chan struct{})
	go func() {
		release := locker.Lock(domain.NewPair(pair.High, pair.Low))
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("the reversed pair must wait for the same lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	<-acquired
	req.Eventually(func() bool { return locker.Len() == 0 }, time.Second, 10*time.Millisecond)
}
