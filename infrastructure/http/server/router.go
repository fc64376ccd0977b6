// Package server exposes the REST API and mounts the realtime endpoint.
package server

import (
	"dm-lab/auth"
	"dm-lab/runtime/workers"
	"dm-lab/services"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IHealthSource gives the last health sample of the process.
type IHealthSource interface {
	Snapshot() workers.Health
}

type Router struct {
	requests      services.IRequestService
	conversations services.IConversationService
	directory     services.IUserDirectory
	verifier      auth.IVerifier
	health        IHealthSource
	websocket     gin.HandlerFunc
	log           *slog.Logger
}

func NewRouter(
	requests services.IRequestService,
	conversations services.IConversationService,
	directory services.IUserDirectory,
	verifier auth.IVerifier,
	health IHealthSource,
	websocket gin.HandlerFunc,
	log *slog.Logger,
) *Router {
	return &Router{
		requests:      requests,
		conversations: conversations,
		directory:     directory,
		verifier:      verifier,
		health:        health,
		websocket:     websocket,
		log:           log,
	}
}

// Engine builds the gin engine. The websocket route authenticates its own handshake.
func (r *Router) Engine() *gin.Engine {
	wireNames.Do(useWireNames)
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(r.log))
	engine.HandleMethodNotAllowed = true

	engine.GET("/healthz", r.healthz)
	if r.websocket != nil {
		engine.GET("/ws", r.websocket)
	}

	api := engine.Group("/", r.authenticate())
	api.POST("/requests", r.createRequest)
	api.GET("/requests", r.listRequests)
	api.GET("/requests/:receiverId/check", r.checkRequest)
	api.PATCH("/requests/:id", r.respondToRequest)

	api.GET("/conversations", r.listConversations)
	api.GET("/conversations/:id/messages", r.listMessages)
	api.POST("/conversations/:id/messages", r.sendMessage)
	api.GET("/conversations/:id/messages/search", r.searchMessages)
	api.PATCH("/conversations/:id/read", r.markRead)
	return engine
}

func (r *Router) healthz(c *gin.Context) {
	health := r.health.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": health.Connections,
		"rooms":       health.Rooms,
		"goroutines":  health.Goroutines,
		"cpuPercent":  health.CPU,
		"ramPercent":  health.RAM,
	})
}
