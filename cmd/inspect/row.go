package main

import (
	"dm-lab/domain"
	"encoding/json"
	"strings"
	"time"
)

type row struct {
	Key    string
	Kind   string
	ID     string
	Status string
	Detail string
	At     time.Time
}

func (r row) cells() []string {
	at := ""
	if !r.At.IsZero() {
		at = r.At.Format(time.DateTime)
	}
	return []string{r.Key, r.Kind, shortID(r.ID), r.Status, truncate(r.Detail, 48), at}
}

// describe decodes a value according to the namespace of its key.
func describe(key string, value []byte) (row, error) {
	kind, _, _ := strings.Cut(key, ":")
	r := row{Key: key, Kind: kind}

	switch kind {
	case "request":
		var request domain.MessageRequest
		if err := json.Unmarshal(value, &request); err != nil {
			return row{}, err
		}
		r.ID, r.Status, r.At = request.ID, string(request.Status), request.UpdatedAt
		r.Detail = shortID(request.SenderID) + " -> " + shortID(request.ReceiverID) + " " + request.Content
	case "conversation":
		var conversation domain.Conversation
		if err := json.Unmarshal(value, &conversation); err != nil {
			return row{}, err
		}
		r.ID, r.At = conversation.ID, conversation.UpdatedAt
		r.Detail = strings.Join(conversation.Participants, " <-> ")
	case "message":
		var message domain.Message
		if err := json.Unmarshal(value, &message); err != nil {
			return row{}, err
		}
		r.ID, r.At, r.Detail = message.ID, message.CreatedAt, message.Content
		r.Status = "unread"
		if message.IsRead {
			r.Status = "read"
		}
	case "user":
		var user domain.UserSummary
		if err := json.Unmarshal(value, &user); err != nil {
			return row{}, err
		}
		r.ID, r.Detail = user.ID, user.Username
	default:
		r.Detail = string(value)
	}
	return r, nil
}

// shortID keeps the first 8 characters of an id for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
