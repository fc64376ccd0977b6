//go:generate go run go.uber.org/mock/mockgen -source=user_directory.go -destination=../mocks/mock_user_directory.go -package=mocks
package services

import (
	"dm-lab/domain"
	"dm-lab/repositories"
	"log/slog"
	"sync"
)

type IUserDirectory interface {
	Remember(user domain.UserSummary)
	Summaries(ids ...string) map[string]domain.UserSummary
}

// UserDirectory keeps the profile mirror in sync with verified identities.
// The last summary written per user is cached so unchanged profiles never hit the store.
type UserDirectory struct {
	users repositories.IUserRepository
	seen  sync.Map
	log   *slog.Logger
}

func NewUserDirectory(users repositories.IUserRepository, log *slog.Logger) *UserDirectory {
	return &UserDirectory{users: users, log: log}
}

// Remember upserts the profile. Failures are logged, the mirror is best-effort.
func (d *UserDirectory) Remember(user domain.UserSummary) {
	if cached, ok := d.seen.Load(user.ID); ok && cached.(domain.UserSummary) == user {
		return
	}
	if err := d.users.Upsert(user); err != nil {
		d.log.Warn("Unable to mirror user profile", "user_id", user.ID, "error", err)
		return
	}
	d.seen.Store(user.ID, user)
}

// Summaries never fails: unknown users and storage errors fall back to bare ids.
func (d *UserDirectory) Summaries(ids ...string) map[string]domain.UserSummary {
	users, err := d.users.GetMany(ids)
	if err != nil {
		d.log.Warn("Unable to load user summaries", "error", err)
		users = make(map[string]domain.UserSummary, len(ids))
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			users[id] = domain.UserSummary{ID: id}
		}
	}
	return users
}
