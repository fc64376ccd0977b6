package domain

import (
	"time"
)

type CreateRequestCommand struct {
	SenderID   string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
}

type RespondToRequestCommand struct {
	RequestID   string
	ResponderID string
	Action      Action
	RespondedAt time.Time
}

type SendMessageCommand struct {
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
}

type SearchMessagesCommand struct {
	ConversationID string
	RequesterID    string
	Query          string
	Limit          int
}
