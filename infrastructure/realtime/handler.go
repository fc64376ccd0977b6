package realtime

import (
	"context"
	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	CommandJoinConversation  = "join_conversation"
	CommandLeaveConversation = "leave_conversation"
)

// IJoinPolicy decides whether a user may join a conversation room.
type IJoinPolicy interface {
	CanJoin(conversationID, userID string) error
}

type command struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	gateway  *Gateway
	verifier auth.IVerifier
	policy   IJoinPolicy
	cfg      ConnectionConfig
	log      *slog.Logger
}

func NewHandler(gateway *Gateway, verifier auth.IVerifier, policy IJoinPolicy, cfg ConnectionConfig, log *slog.Logger) *Handler {
	return &Handler{gateway: gateway, verifier: verifier, policy: policy, cfg: cfg, log: log}
}

// Handle authenticates the handshake, upgrades it and processes the client commands until disconnection.
// A handshake without a valid credential is answered 401 and never upgraded.
func (h *Handler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.verifier.Verify(auth.TokenFromRequest(c.Request))
		if err != nil {
			h.log.Debug("Websocket handshake rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    errors.CodeOf(err),
				"message": errors.Message(err),
			}})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response
			h.log.Debug("Websocket upgrade failed", "error", err)
			return
		}

		conn := NewConnection(identity.UserID, ws, h.cfg, h.log)
		h.gateway.Attach(conn)
		conn.Start()
		defer func() {
			h.gateway.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		h.reply(conn, event.Connected, event.ConnectedPayload{UserID: conn.UserID, ConnectionID: conn.ID})
		conn.ReadLoop(func(payload []byte) {
			h.dispatch(conn, payload)
		})
	}
}

func (h *Handler) dispatch(conn *Connection, payload []byte) {
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		h.replyError(conn, errors.Validation("malformed frame"))
		return
	}

	switch cmd.Event {
	case CommandJoinConversation:
		if err := h.policy.CanJoin(cmd.ConversationID, conn.UserID); err != nil {
			h.replyError(conn, err)
			return
		}
		h.gateway.Join(conn, domain.ConversationRoom(cmd.ConversationID))
		h.reply(conn, event.JoinedConversation, event.ConversationAckPayload{ConversationID: cmd.ConversationID})
	case CommandLeaveConversation:
		if !domain.IsValidID(cmd.ConversationID) {
			h.replyError(conn, errors.ErrInvalidID)
			return
		}
		h.gateway.Leave(conn, domain.ConversationRoom(cmd.ConversationID))
		h.reply(conn, event.LeftConversation, event.ConversationAckPayload{ConversationID: cmd.ConversationID})
	default:
		h.replyError(conn, errors.Validation("unknown event "+cmd.Event))
	}
}

// reply writes to this connection only, outside of any room.
func (h *Handler) reply(conn *Connection, name event.Name, payload any) {
	e, err := event.New("", name, payload)
	if err != nil {
		h.log.Error("Unable to encode frame", "event", name, "error", err)
		return
	}
	if err = conn.Consume(context.Background(), e); err != nil {
		h.log.Debug("Reply not delivered", "event", name, "error", err)
	}
}

func (h *Handler) replyError(conn *Connection, err error) {
	h.reply(conn, event.Error, event.ErrorPayload{Code: errors.CodeOf(err), Message: errors.Message(err)})
}
