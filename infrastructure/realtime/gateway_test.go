package realtime

import (
	"context"
	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/runtime"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var testConfig = ConnectionConfig{
	BufferSize:   16,
	WriteTimeout: time.Second,
	PongTimeout:  5 * time.Second,
	PingInterval: time.Second,
	ReadLimit:    4096,
}

type allowList map[string]bool

func (a allowList) CanJoin(conversationID, _ string) error {
	if !domain.IsValidID(conversationID) {
		return errors.ErrInvalidID
	}
	if !a[conversationID] {
		return errors.ErrNotParticipant
	}
	return nil
}

type harness struct {
	server   *httptest.Server
	gateway  *Gateway
	verifier *auth.JWTVerifier
}

func newHarness(t *testing.T, policy IJoinPolicy) *harness {
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	gateway := NewGateway(runtime.NewRegistry(), log)
	verifier := auth.NewJWTVerifier([]byte("realtime_test_secret_long_enough!!"), "dm-lab")

	engine := gin.New()
	engine.GET("/ws", NewHandler(gateway, verifier, policy, testConfig, log).Handle())
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return &harness{server: server, gateway: gateway, verifier: verifier}
}

func (h *harness) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
}

// dial connects as userID and consumes the connected frame.
func (h *harness) dial(t *testing.T, userID string) *websocket.Conn {
	token, err := h.verifier.GenerateToken(auth.Identity{UserID: userID}, time.Hour)
	require.NoError(t, err)
	header := http.Header{"Authorization": []string{auth.BearerToken(token)}}
	conn, _, err := websocket.DefaultDialer.Dial(h.url(), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	frame := readFrame(t, conn)
	require.Equal(t, event.Connected, frame.Event)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) event.Frame {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame event.Frame
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func sendCommand(t *testing.T, conn *websocket.Conn, name, conversationID string) {
	require.NoError(t, conn.WriteJSON(command{Event: name, ConversationID: conversationID}))
}

func TestHandler_RejectsInvalidCredential(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, allowList{})

	// Given no credential at all
	_, resp, err := websocket.DefaultDialer.Dial(h.url(), nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Given a garbage credential in the query string
	_, resp, err = websocket.DefaultDialer.Dial(h.url()+"?token=garbage", nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Then nothing joined any room
	req.Equal(runtime.Stats{}, h.gateway.Stats())
}

func TestHandler_AcceptsTokenFromQuery(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, allowList{})
	userID := uuid.NewString()
	token, err := h.verifier.GenerateToken(auth.Identity{UserID: userID}, time.Hour)
	req.NoError(err)

	conn, _, err := websocket.DefaultDialer.Dial(h.url()+"?token="+token, nil)
	req.NoError(err)
	defer conn.Close()

	frame := readFrame(t, conn)
	req.Equal(event.Connected, frame.Event)
	var payload event.ConnectedPayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal(userID, payload.UserID)
	req.NotEmpty(payload.ConnectionID)
}

func TestGateway_PersonalRoomReachesEveryConnection(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conversationID := uuid.NewString()
	h := newHarness(t, allowList{conversationID: true})
	userID := uuid.NewString()

	// Given a user with two connections, only the first joined the conversation room
	first := h.dial(t, userID)
	second := h.dial(t, userID)
	sendCommand(t, first, CommandJoinConversation, conversationID)
	ack := readFrame(t, first)
	req.Equal(event.JoinedConversation, ack.Event)
	req.Equal(runtime.Stats{Connections: 2, Rooms: 2}, h.gateway.Stats())

	// When a message is emitted to its personal room
	payload := event.NewMessagePayload{ConversationID: conversationID}
	req.NoError(h.gateway.Emit(ctx, domain.UserRoom(userID), event.NewMessage, payload))

	// Then both connections receive it
	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		req.Equal(event.NewMessage, frame.Event)
		var got event.NewMessagePayload
		req.NoError(json.Unmarshal(frame.Data, &got))
		req.Equal(conversationID, got.ConversationID)
	}

	// And the conversation room only reaches the first connection
	e, err := event.New(domain.ConversationRoom(conversationID), event.NewMessage, payload)
	req.NoError(err)
	req.Equal(1, h.gateway.Deliver(ctx, e))

	// An empty room is silently dropped
	req.NoError(h.gateway.Emit(ctx, domain.UserRoom(uuid.NewString()), event.NewMessage, payload))
}

func TestHandler_JoinAndLeave(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	allowed, forbidden := uuid.NewString(), uuid.NewString()
	h := newHarness(t, allowList{allowed: true})
	conn := h.dial(t, uuid.NewString())

	// When joining a conversation of someone else
	sendCommand(t, conn, CommandJoinConversation, forbidden)
	frame := readFrame(t, conn)
	req.Equal(event.Error, frame.Event)
	var failure event.ErrorPayload
	req.NoError(json.Unmarshal(frame.Data, &failure))
	req.Equal("forbidden", failure.Code)

	// When sending an unknown command
	sendCommand(t, conn, "dance", allowed)
	frame = readFrame(t, conn)
	req.Equal(event.Error, frame.Event)

	// When joining then leaving an allowed conversation
	sendCommand(t, conn, CommandJoinConversation, allowed)
	req.Equal(event.JoinedConversation, readFrame(t, conn).Event)
	sendCommand(t, conn, CommandLeaveConversation, allowed)
	frame = readFrame(t, conn)
	req.Equal(event.LeftConversation, frame.Event)
	var left event.ConversationAckPayload
	req.NoError(json.Unmarshal(frame.Data, &left))
	req.Equal(allowed, left.ConversationID)

	// Then the conversation room is gone
	e, err := event.New(domain.ConversationRoom(allowed), event.NewMessage, struct{}{})
	req.NoError(err)
	req.Zero(h.gateway.Deliver(ctx, e))
}

func TestHandler_DisconnectDropsMemberships(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, allowList{})
	conn := h.dial(t, uuid.NewString())
	req.Equal(1, h.gateway.Stats().Connections)

	req.NoError(conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	req.Eventually(func() bool {
		return h.gateway.Stats() == runtime.Stats{}
	}, 2*time.Second, 20*time.Millisecond)
}

type relayRecorder struct {
	events []event.Event
}

func (r *relayRecorder) Publish(_ context.Context, e event.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestGateway_EmitThroughRelay(t *testing.T) {
	req := require.New(t)
	gateway := NewGateway(runtime.NewRegistry(), logs.GetLoggerFromLevel(slog.LevelDebug))
	relay := &relayRecorder{}
	gateway.UseRelay(relay)
	room := domain.UserRoom(uuid.NewString())

	req.NoError(gateway.Emit(context.Background(), room, event.MessagesRead, event.MessagesReadPayload{Count: 2}))

	req.Len(relay.events, 1)
	req.Equal(room, relay.events[0].Room)
	req.Equal(event.MessagesRead, relay.events[0].Name)
	req.JSONEq(`{"conversationId":"","readerId":"","count":2}`, string(relay.events[0].Data))
}
