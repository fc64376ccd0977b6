package repositories

import (
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/runtime"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, domain.Conversation, error)
	Get(id string) (domain.Message, error)
	GetMany(ids []string) ([]domain.Message, error)
	List(conversationID string, limit int) ([]domain.Message, error)
	MarkRead(conversationID, readerID string, at time.Time) (int, error)
}

// MessageRepository serializes the writes of one conversation in process,
// so two participants sending at once never fail on each other's commit.
type MessageRepository struct {
	db    *badger.DB
	locks *runtime.KeyLocker
	log   *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, locks: runtime.NewKeyLocker(), log: log}
}

// Append stores the message and moves the conversation's last message pointer in one transaction.
// It returns the stored message, whose CreatedAt may have been shifted to stay strictly after
// the previous message of the conversation, and the updated conversation.
func (m *MessageRepository) Append(message domain.Message) (domain.Message, domain.Conversation, error) {
	unlock := m.locks.Lock(message.ConversationID)
	defer unlock()

	var (
		stored       domain.Message
		conversation domain.Conversation
	)
	err := updateWithRetry(m.db, func(txn *badger.Txn) error {
		var err error
		conversation, err = getJSON[domain.Conversation](txn, conversationKey(message.ConversationID), errors.ErrConversationNotFound)
		if err != nil {
			return err
		}
		if !conversation.HasParticipant(message.SenderID) {
			return errors.ErrNotParticipant
		}
		stored, err = appendMessage(txn, &conversation, message)
		return err
	})
	if err != nil {
		return message, domain.Conversation{}, mapTxnError(err)
	}
	return stored, conversation, nil
}

func (m *MessageRepository) Get(id string) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getMessage(txn, id)
		return err
	})
	return message, err
}

// GetMany keeps the order of ids and skips the ones that do not exist anymore.
func (m *MessageRepository) GetMany(ids []string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(ids))
	err := m.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			message, err := getMessage(txn, id)
			if errors.Is(err, errors.ErrMessageNotFound) {
				m.log.Debug("Indexed message is missing", "id", id)
				continue
			}
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

// List returns the messages of a conversation oldest first.
// Thanks to the padded timestamp in the key, a prefix scan is already chronological.
// A positive limit keeps only the most recent messages.
func (m *MessageRepository) List(conversationID string, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			if err := decodeItem(it.Item(), &message); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// MarkRead flags as read every message of the conversation not sent by readerID.
// It returns how many messages changed.
func (m *MessageRepository) MarkRead(conversationID, readerID string, at time.Time) (int, error) {
	unlock := m.locks.Lock(conversationID)
	defer unlock()

	count := 0
	err := updateWithRetry(m.db, func(txn *badger.Txn) error {
		count = 0
		conversation, err := getJSON[domain.Conversation](txn, conversationKey(conversationID), errors.ErrConversationNotFound)
		if err != nil {
			return err
		}
		if !conversation.HasParticipant(readerID) {
			return errors.ErrNotParticipant
		}

		unread, err := unreadMessages(txn, conversationID, readerID)
		if err != nil {
			return err
		}
		for _, message := range unread {
			message.IsRead = true
			message.UpdatedAt = at
			if err = setJSON(txn, messageKey(message), message); err != nil {
				return err
			}
		}
		count = len(unread)
		return nil
	})
	return count, mapTxnError(err)
}

// unreadMessages is collected before any write so the iterator is closed when MarkRead updates.
func unreadMessages(txn *badger.Txn, conversationID, readerID string) ([]domain.Message, error) {
	prefix := messagePrefix(conversationID)
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	var unread []domain.Message
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var message domain.Message
		if err := decodeItem(it.Item(), &message); err != nil {
			return nil, err
		}
		if message.SenderID != readerID && !message.IsRead {
			unread = append(unread, message)
		}
	}
	return unread, nil
}

// appendMessage writes the message and its id index, then updates the conversation.
func appendMessage(txn *badger.Txn, conversation *domain.Conversation, message domain.Message) (domain.Message, error) {
	last, err := lastMessageTimestamp(txn, message.ConversationID)
	if err != nil {
		return message, err
	}
	if last != nil && !message.CreatedAt.After(*last) {
		message.CreatedAt = last.Add(time.Nanosecond)
		message.UpdatedAt = message.CreatedAt
	}

	key := messageKey(message)
	if err = setJSON(txn, key, message); err != nil {
		return message, err
	}
	if err = txn.Set(messageIndexKey(message.ID), key); err != nil {
		return message, err
	}

	conversation.LastMessageID = &message.ID
	conversation.UpdatedAt = message.CreatedAt
	return message, setJSON(txn, conversationKey(conversation.ID), conversation)
}

func lastMessageTimestamp(txn *badger.Txn, conversationID string) (*time.Time, error) {
	prefix := messagePrefix(conversationID)
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.PrefetchValues = false
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	// Seek past the greatest possible timestamp then walk back
	it.Seek(append(prefix, []byte("9999999999999999999")...))
	if !it.ValidForPrefix(prefix) {
		return nil, nil
	}
	at, err := messageTimestamp(it.Item().Key())
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func getMessage(txn *badger.Txn, id string) (domain.Message, error) {
	item, err := txn.Get(messageIndexKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Message{}, err
	}
	return getJSON[domain.Message](txn, key, errors.ErrMessageNotFound)
}
