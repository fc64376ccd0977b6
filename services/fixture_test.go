package services

import (
	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/mocks"
	"dm-lab/repositories"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	requestRepository *repositories.RequestRepository
	users             *repositories.UserRepository
	requests          *RequestService
	conversations     *ConversationService
	emitter           *mocks.MockIEmitter
}

type options struct {
	policy RequestPolicy
	censor contract.ICensor
	search contract.ISearchIndex
}

func defaultOptions() options {
	return options{policy: RequestPolicy{MaxPending: 3, MaxContentLength: 2000}}
}

func newFixture(t *testing.T, ctrl *gomock.Controller, opts options) *fixture {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	requestRepository := repositories.NewRequestRepository(db, log)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log)
	users := repositories.NewUserRepository(db)
	directory := NewUserDirectory(users, log)
	emitter := mocks.NewMockIEmitter(ctrl)

	return &fixture{
		requestRepository: requestRepository,
		users:             users,
		requests: NewRequestService(requestRepository, conversationRepository, directory, emitter,
			opts.censor, opts.search, NewPairLocker(), opts.policy, log),
		conversations: NewConversationService(conversationRepository, messageRepository, directory, emitter,
			opts.censor, opts.search, opts.policy.MaxContentLength, log),
		emitter: emitter,
	}
}

// ignoreEmits accepts any emission not matched by a previous expectation.
func (f *fixture) ignoreEmits() {
	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) user(t *testing.T, username string) string {
	id := uuid.NewString()
	require.NoError(t, f.users.Upsert(domain.UserSummary{ID: id, Username: username}))
	return id
}
