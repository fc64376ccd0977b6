// Package domain contains core concepts of the direct-messaging system.
// This file defines message requests and their status transitions.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"dm-lab/errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// IsOpen reports whether the status still blocks a new request for the same ordered pair.
func (s RequestStatus) IsOpen() bool {
	return s == StatusPending || s == StatusAccepted
}

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAccept:
		return ActionAccept, nil
	case ActionDecline:
		return ActionDecline, nil
	}
	return "", errors.ErrInvalidAction
}

// MessageRequest gates a conversation: the receiver accepts or declines it exactly once.
type MessageRequest struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	Content    string        `json:"content"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func NewMessageRequest(senderID, receiverID, content string, at time.Time) (MessageRequest, error) {
	if !IsValidID(receiverID) || receiverID == senderID {
		return MessageRequest{}, errors.ErrInvalidTarget
	}
	return MessageRequest{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Status:     StatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}, nil
}

func (r MessageRequest) Pair() Pair {
	return NewPair(r.SenderID, r.ReceiverID)
}

// Resolve moves a pending request to its terminal status.
// Only the receiver may resolve, and only once.
func (r *MessageRequest) Resolve(responderID string, action Action, at time.Time) error {
	if responderID != r.ReceiverID {
		return errors.ErrNotReceiver
	}
	if r.Status != StatusPending {
		return errors.ErrAlreadyHandled
	}
	switch action {
	case ActionAccept:
		r.Status = StatusAccepted
	case ActionDecline:
		r.Status = StatusDeclined
	default:
		return errors.ErrInvalidAction
	}
	r.UpdatedAt = at
	return nil
}

// RequestResolution is the outcome of a respond action.
type RequestResolution struct {
	RequestID      string        `json:"requestId"`
	Status         RequestStatus `json:"status"`
	ConversationID *string       `json:"conversationId,omitempty"`
}

type CheckStatus string

const (
	CheckNone     CheckStatus = "none"
	CheckPending  CheckStatus = "pending"
	CheckAccepted CheckStatus = "accepted"
)

// RequestCheck tells a sender where they stand with a receiver.
type RequestCheck struct {
	Status         CheckStatus `json:"status"`
	ConversationID *string     `json:"conversationId,omitempty"`
}
