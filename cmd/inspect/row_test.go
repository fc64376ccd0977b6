package main

import (
	"dm-lab/domain"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	t.Run("should describe a request", func(t *testing.T) {
		req := require.New(t)
		request, err := domain.NewMessageRequest(uuid.NewString(), uuid.NewString(), "hello", at)
		req.NoError(err)
		value, err := json.Marshal(request)
		req.NoError(err)

		r, err := describe("request:"+request.ID, value)
		req.NoError(err)

		req.Equal("request", r.Kind)
		req.Equal("pending", r.Status)
		req.Contains(r.Detail, "hello")
		cells := r.cells()
		req.Equal(request.ID[:8], cells[2])
		req.Equal("2026-01-02 15:04:05", cells[5])
	})

	t.Run("should describe a read message and truncate its content", func(t *testing.T) {
		req := require.New(t)
		message := domain.NewMessage(uuid.NewString(), uuid.NewString(), strings.Repeat("a", 100), at)
		message.IsRead = true
		value, err := json.Marshal(message)
		req.NoError(err)

		r, err := describe("message:"+message.ConversationID+":1:"+message.ID, value)
		req.NoError(err)

		req.Equal("read", r.Status)
		req.Len([]rune(r.cells()[4]), 48)
	})

	t.Run("should print index values raw", func(t *testing.T) {
		req := require.New(t)
		r, err := describe("idx:conversation:pair:a:b", []byte("conv-1"))
		req.NoError(err)
		req.Equal("idx", r.Kind)
		req.Equal("conv-1", r.Detail)
	})

	t.Run("should fail on a corrupted value", func(t *testing.T) {
		req := require.New(t)
		_, err := describe("conversation:x", []byte("{"))
		req.Error(err)
	})
}
