package repositories

import (
	"dm-lab/domain"
	"dm-lab/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// CreatePolicy bounds how many requests a sender may open toward the same receiver.
// MaxPending <= 0 disables the rate limit. AllowRepeated disables the duplicate check.
type CreatePolicy struct {
	MaxPending    int
	AllowRepeated bool
}

type IRequestRepository interface {
	Create(request domain.MessageRequest, policy CreatePolicy) error
	Get(id string) (domain.MessageRequest, error)
	ListPendingForReceiver(receiverID string) ([]domain.MessageRequest, error)
	ListForPair(senderID, receiverID string) ([]domain.MessageRequest, error)
	Decline(id, responderID string, at time.Time) (domain.MessageRequest, error)
	Accept(id, responderID string, conversation domain.Conversation, first domain.Message) (domain.MessageRequest, error)
}

type RequestRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRequestRepository(db *badger.DB, log *slog.Logger) *RequestRepository {
	return &RequestRepository{db: db, log: log}
}

// Create checks the pair and persists the request in one transaction.
// Checks run in order: existing conversation, pending rate limit, duplicate open request.
// A concurrent writer touching the same keys makes the commit fail with ErrConflict.
func (r *RequestRepository) Create(request domain.MessageRequest, policy CreatePolicy) error {
	err := updateWithRetry(r.db, func(txn *badger.Txn) error {
		conversing, err := exists(txn, conversationPairKey(request.Pair()))
		if err != nil {
			return err
		}
		if conversing {
			return errors.ErrAlreadyConversing
		}

		previous, err := requestsForPair(txn, request.SenderID, request.ReceiverID)
		if err != nil {
			return err
		}
		pending, open := 0, 0
		for _, p := range previous {
			if p.Status == domain.StatusPending {
				pending++
			}
			if p.Status.IsOpen() {
				open++
			}
		}
		if policy.MaxPending > 0 && pending >= policy.MaxPending {
			return errors.ErrRateLimited
		}
		if !policy.AllowRepeated && open > 0 {
			return errors.ErrDuplicateRequest
		}

		if err = setJSON(txn, requestKey(request.ID), request); err != nil {
			return err
		}
		if err = txn.Set(pendingIndexKey(request), nil); err != nil {
			return err
		}
		return txn.Set(pairIndexKey(request), nil)
	})
	return mapTxnError(err)
}

func (r *RequestRepository) Get(id string) (domain.MessageRequest, error) {
	var request domain.MessageRequest
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		request, err = getJSON[domain.MessageRequest](txn, requestKey(id), errors.ErrRequestNotFound)
		return err
	})
	return request, err
}

// ListPendingForReceiver returns the pending requests addressed to receiverID in order of receipt.
// The pending index only holds unresolved requests and is sorted by creation time.
func (r *RequestRepository) ListPendingForReceiver(receiverID string) ([]domain.MessageRequest, error) {
	var requests []domain.MessageRequest
	err := r.db.View(func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, pendingIndexPrefix(receiverID)) {
			request, err := getJSON[domain.MessageRequest](txn, requestKey(lastSegment(key)), errors.ErrRequestNotFound)
			if errors.Is(err, errors.ErrRequestNotFound) {
				r.log.Warn("Dangling pending index", "key", string(key))
				continue
			}
			if err != nil {
				return err
			}
			requests = append(requests, request)
		}
		return nil
	})
	return requests, err
}

// ListForPair returns every request sent by senderID to receiverID, whatever its status.
func (r *RequestRepository) ListForPair(senderID, receiverID string) ([]domain.MessageRequest, error) {
	var requests []domain.MessageRequest
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		requests, err = requestsForPair(txn, senderID, receiverID)
		return err
	})
	return requests, err
}

func (r *RequestRepository) Decline(id, responderID string, at time.Time) (domain.MessageRequest, error) {
	var request domain.MessageRequest
	err := updateWithRetry(r.db, func(txn *badger.Txn) error {
		var err error
		request, err = getJSON[domain.MessageRequest](txn, requestKey(id), errors.ErrRequestNotFound)
		if err != nil {
			return err
		}
		pendingKey := pendingIndexKey(request)
		if err = request.Resolve(responderID, domain.ActionDecline, at); err != nil {
			return err
		}
		if err = setJSON(txn, requestKey(id), request); err != nil {
			return err
		}
		return txn.Delete(pendingKey)
	})
	return request, mapTxnError(err)
}

// Accept resolves the request and creates the conversation with its first message atomically.
// Either everything is committed or nothing is.
func (r *RequestRepository) Accept(id, responderID string, conversation domain.Conversation, first domain.Message) (domain.MessageRequest, error) {
	var request domain.MessageRequest
	err := updateWithRetry(r.db, func(txn *badger.Txn) error {
		var err error
		request, err = getJSON[domain.MessageRequest](txn, requestKey(id), errors.ErrRequestNotFound)
		if err != nil {
			return err
		}
		pendingKey := pendingIndexKey(request)
		if err = request.Resolve(responderID, domain.ActionAccept, first.CreatedAt); err != nil {
			return err
		}
		if err = insertConversation(txn, conversation); err != nil {
			return err
		}
		if _, err = appendMessage(txn, &conversation, first); err != nil {
			return err
		}
		if err = setJSON(txn, requestKey(id), request); err != nil {
			return err
		}
		return txn.Delete(pendingKey)
	})
	return request, mapTxnError(err)
}

func requestsForPair(txn *badger.Txn, senderID, receiverID string) ([]domain.MessageRequest, error) {
	var requests []domain.MessageRequest
	for _, key := range keysWithPrefix(txn, pairIndexPrefix(senderID, receiverID)) {
		request, err := getJSON[domain.MessageRequest](txn, requestKey(lastSegment(key)), errors.ErrRequestNotFound)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}
