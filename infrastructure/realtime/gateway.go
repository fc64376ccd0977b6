// Package realtime pushes events to the websocket connections of the users.
package realtime

import (
	"context"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/runtime"
	"log/slog"
)

// IRelay carries events between gateway instances.
type IRelay interface {
	Publish(ctx context.Context, e event.Event) error
}

// Gateway implements contract.IEmitter on top of the connection registry.
// Delivery is ephemeral: events for rooms without connections are dropped.
type Gateway struct {
	registry *runtime.Registry
	relay    IRelay
	log      *slog.Logger
}

func NewGateway(registry *runtime.Registry, log *slog.Logger) *Gateway {
	return &Gateway{registry: registry, log: log}
}

// UseRelay routes every emission through relay. Each instance then delivers what the relay hands back.
func (g *Gateway) UseRelay(relay IRelay) {
	g.relay = relay
}

func (g *Gateway) Emit(ctx context.Context, room domain.RoomID, name event.Name, payload any) error {
	e, err := event.New(room, name, payload)
	if err != nil {
		return err
	}
	if g.relay != nil {
		return g.relay.Publish(ctx, e)
	}
	g.Deliver(ctx, e)
	return nil
}

// Deliver hands the event to every local connection of the room and returns how many accepted it.
// A sink that cannot keep up is closed by itself, the others are not affected.
func (g *Gateway) Deliver(ctx context.Context, e event.Event) int {
	delivered := 0
	for _, sink := range g.registry.GetSinksForRoom(e.Room) {
		if err := sink.Consume(ctx, e); err != nil {
			g.log.Debug("Event not delivered", "room", e.Room, "event", e.Name, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Attach registers the connection and joins its personal room.
func (g *Gateway) Attach(conn *Connection) {
	g.registry.Register(conn.ID, conn)
	g.registry.Join(conn.ID, domain.UserRoom(conn.UserID))
	g.log.Debug("Connection attached", "connection_id", conn.ID, "user_id", conn.UserID)
}

// Detach drops every membership of the connection.
func (g *Gateway) Detach(conn *Connection) {
	g.registry.Unregister(conn.ID)
	g.log.Debug("Connection detached", "connection_id", conn.ID, "user_id", conn.UserID)
}

func (g *Gateway) Join(conn *Connection, room domain.RoomID) bool {
	return g.registry.Join(conn.ID, room)
}

func (g *Gateway) Leave(conn *Connection, room domain.RoomID) {
	g.registry.Leave(conn.ID, room)
}

func (g *Gateway) Stats() runtime.Stats {
	return g.registry.Stats()
}
