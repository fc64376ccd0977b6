package repositories

import (
	"dm-lab/domain"
	"dm-lab/errors"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	Create(conversation domain.Conversation) error
	Get(id string) (domain.Conversation, error)
	FindByPair(pair domain.Pair) (*domain.Conversation, error)
	ListForUser(userID string) ([]domain.Conversation, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create fails with ErrAlreadyConversing when the pair already owns a conversation.
func (c *ConversationRepository) Create(conversation domain.Conversation) error {
	err := updateWithRetry(c.db, func(txn *badger.Txn) error {
		return insertConversation(txn, conversation)
	})
	return mapTxnError(err)
}

func (c *ConversationRepository) Get(id string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = getJSON[domain.Conversation](txn, conversationKey(id), errors.ErrConversationNotFound)
		return err
	})
	return conversation, err
}

// FindByPair returns nil when the two users never conversed.
func (c *ConversationRepository) FindByPair(pair domain.Pair) (*domain.Conversation, error) {
	var found *domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationPairKey(pair))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		conversation, err := getJSON[domain.Conversation](txn, conversationKey(string(id)), errors.ErrConversationNotFound)
		if err != nil {
			return err
		}
		found = &conversation
		return nil
	})
	return found, err
}

// ListForUser returns the conversations of userID, most recently active first.
func (c *ConversationRepository) ListForUser(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, conversationUserPrefix(userID)) {
			conversation, err := getJSON[domain.Conversation](txn, conversationKey(lastSegment(key)), errors.ErrConversationNotFound)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func insertConversation(txn *badger.Txn, conversation domain.Conversation) error {
	pairKey := conversationPairKey(conversation.Pair())
	taken, err := exists(txn, pairKey)
	if err != nil {
		return err
	}
	if taken {
		return errors.ErrAlreadyConversing
	}
	if err = txn.Set(pairKey, []byte(conversation.ID)); err != nil {
		return err
	}
	for _, participant := range conversation.Participants {
		if err = txn.Set(conversationUserKey(participant, conversation.ID), nil); err != nil {
			return err
		}
	}
	return setJSON(txn, conversationKey(conversation.ID), conversation)
}
