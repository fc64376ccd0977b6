// Package event defines the realtime events pushed to connected clients.
package event

import (
	"dm-lab/domain"
	"encoding/json"
	"time"
)

type Name string

const (
	NewMessageRequest      Name = "new_message_request"
	MessageRequestResponse Name = "message_request_response"
	ConversationCreated    Name = "conversation_created"
	NewMessage             Name = "new_message"
	MessagesRead           Name = "messages_read"

	Connected          Name = "connected"
	JoinedConversation Name = "joined_conversation"
	LeftConversation   Name = "left_conversation"
	Error              Name = "error"
)

// Event is a named payload addressed to one room.
// Data is encoded once at emission so every connection and the relay reuse the same bytes.
type Event struct {
	Room domain.RoomID   `json:"room"`
	Name Name            `json:"name"`
	Data json.RawMessage `json:"data"`
	At   time.Time       `json:"at"`
}

func New(room domain.RoomID, name Name, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Room: room, Name: name, Data: data, At: time.Now().UTC()}, nil
}

// Frame is the wire format of a server to client message.
type Frame struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (e Event) Frame() ([]byte, error) {
	return json.Marshal(Frame{Event: e.Name, Data: e.Data})
}

type NewMessageRequestPayload struct {
	Request domain.RequestView `json:"request"`
}

type MessageRequestResponsePayload struct {
	RequestID      string               `json:"requestId"`
	Status         domain.RequestStatus `json:"status"`
	ConversationID *string              `json:"conversationId,omitempty"`
}

type ConversationCreatedPayload struct {
	ConversationID string `json:"conversationId"`
}

type NewMessagePayload struct {
	ConversationID string             `json:"conversationId"`
	Message        domain.MessageView `json:"message"`
}

type MessagesReadPayload struct {
	ConversationID string `json:"conversationId"`
	ReaderID       string `json:"readerId"`
	Count          int    `json:"count"`
}

type ConversationAckPayload struct {
	ConversationID string `json:"conversationId"`
}

type ConnectedPayload struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
