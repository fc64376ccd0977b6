package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pair is an unordered pair of distinct users, stored sorted.
type Pair struct {
	Low  string
	High string
}

func NewPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

func (p Pair) Key() string {
	return p.Low + ":" + p.High
}

func (p Pair) Contains(userID string) bool {
	return p.Low == userID || p.High == userID
}

// Conversation exists at most once per pair. It is created when a request is accepted.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	LastMessageID *string   `json:"lastMessageId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewConversation(a, b string, at time.Time) Conversation {
	pair := NewPair(a, b)
	return Conversation{
		ID:           uuid.NewString(),
		Participants: []string{pair.Low, pair.High},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func (c Conversation) Pair() Pair {
	if len(c.Participants) != 2 {
		return Pair{}
	}
	return NewPair(c.Participants[0], c.Participants[1])
}

func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ConversationView is a conversation enriched for listing.
type ConversationView struct {
	ID           string        `json:"id"`
	Participants []UserSummary `json:"participants"`
	LastMessage  *Message      `json:"lastMessage"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
