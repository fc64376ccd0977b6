// Package domain contains core concepts of the direct-messaging system.
// This file defines user summaries mirrored from the identity provider.
package domain

import "github.com/google/uuid"

// UserSummary is the public profile attached to requests, conversations and messages.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// RequestView is a message request enriched with its sender summary.
type RequestView struct {
	MessageRequest
	Sender UserSummary `json:"sender"`
}
