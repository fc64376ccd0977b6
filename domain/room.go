package domain

import "strings"

// RoomID names a fan-out channel of the realtime gateway.
type RoomID string

const (
	userRoomPrefix         = "user:"
	conversationRoomPrefix = "conversation:"
)

// UserRoom is the personal room every connection of a user joins.
func UserRoom(userID string) RoomID {
	return RoomID(userRoomPrefix + userID)
}

// ConversationRoom is joined explicitly by clients viewing the conversation.
func ConversationRoom(conversationID string) RoomID {
	return RoomID(conversationRoomPrefix + conversationID)
}

func (r RoomID) IsPersonal() bool {
	return strings.HasPrefix(string(r), userRoomPrefix)
}
