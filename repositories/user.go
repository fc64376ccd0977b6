package repositories

import (
	"dm-lab/domain"
	"dm-lab/errors"

	"github.com/dgraph-io/badger/v4"
)

// IUserRepository mirrors the public profile carried by verified tokens.
// The identity provider stays the source of truth.
type IUserRepository interface {
	Upsert(user domain.UserSummary) error
	Get(id string) (domain.UserSummary, error)
	GetMany(ids []string) (map[string]domain.UserSummary, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert only writes when the profile changed.
func (u *UserRepository) Upsert(user domain.UserSummary) error {
	err := updateWithRetry(u.db, func(txn *badger.Txn) error {
		current, err := getJSON[domain.UserSummary](txn, userKey(user.ID), errors.ErrUserNotFound)
		if err == nil && current == user {
			return nil
		}
		if err != nil && !errors.Is(err, errors.ErrUserNotFound) {
			return err
		}
		return setJSON(txn, userKey(user.ID), user)
	})
	return mapTxnError(err)
}

func (u *UserRepository) Get(id string) (domain.UserSummary, error) {
	var user domain.UserSummary
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getJSON[domain.UserSummary](txn, userKey(id), errors.ErrUserNotFound)
		return err
	})
	return user, err
}

// GetMany falls back to a bare summary holding the id for unknown users.
func (u *UserRepository) GetMany(ids []string) (map[string]domain.UserSummary, error) {
	users := make(map[string]domain.UserSummary, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			if _, ok := users[id]; ok {
				continue
			}
			user, err := getJSON[domain.UserSummary](txn, userKey(id), errors.ErrUserNotFound)
			if errors.Is(err, errors.ErrUserNotFound) {
				users[id] = domain.UserSummary{ID: id}
				continue
			}
			if err != nil {
				return err
			}
			users[id] = user
		}
		return nil
	})
	return users, err
}
