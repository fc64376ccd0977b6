// Package domain contains core concepts of the direct-messaging system.
// This file defines messages and related rules.
// Messages are immutable except for their read flag.
package domain

import (
	"dm-lab/errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Message represents a message posted in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewMessage(conversationID, senderID, content string, at time.Time) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// MessageView is a message enriched with its sender summary.
type MessageView struct {
	Message
	Sender UserSummary `json:"sender"`
}

// ValidateContent rejects blank content and content longer than maxLength runes (0 disables the limit).
func ValidateContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrEmptyContent
	}
	if maxLength > 0 && utf8.RuneCountInString(content) > maxLength {
		return errors.ErrContentTooLong
	}
	return nil
}
