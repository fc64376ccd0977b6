package main

import (
	"context"
	"dm-lab/auth"
	"dm-lab/contract"
	"dm-lab/infrastructure/http/server"
	"dm-lab/infrastructure/realtime"
	"dm-lab/internal"
	"dm-lab/moderation"
	"dm-lab/repositories"
	"dm-lab/runtime"
	"dm-lab/runtime/workers"
	"dm-lab/services"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, blocks until a signal arrives and returns the first fatal error.
// Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Optional features, left as nil interfaces when disabled
	var search contract.ISearchIndex
	if config.BlugeFilepath != "" {
		index, err := repositories.OpenMessageIndex(config.BlugeFilepath, log)
		if err != nil {
			return fmt.Errorf("search index opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing search index...")
			_ = index.Close()
		}()
		search = index
	}

	var censor contract.ICensor
	if config.EnableModeration {
		moderator, err := newModerator(config, log)
		if err != nil {
			return err
		}
		censor = moderator
	}

	// 4. Repositories & Services
	requestRepository := repositories.NewRequestRepository(db, log)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log)
	directory := services.NewUserDirectory(repositories.NewUserRepository(db), log)

	gateway := realtime.NewGateway(runtime.NewRegistry(), log)
	requestService := services.NewRequestService(
		requestRepository, conversationRepository, directory, gateway, censor, search,
		services.NewPairLocker(),
		services.RequestPolicy{
			MaxPending:       config.MaxPendingRequests,
			AllowRepeated:    config.AllowRepeatedRequests,
			MaxContentLength: config.MaxContentLength,
		},
		log,
	)
	conversationService := services.NewConversationService(
		conversationRepository, messageRepository, directory, gateway, censor, search,
		config.MaxContentLength, log,
	)

	// 5. Transports
	verifier := auth.NewJWTVerifier([]byte(config.JWTSecret), config.JWTIssuer)
	health := workers.NewHealthMonitoringWorker(log, gateway, config.MetricInterval)
	websocket := realtime.NewHandler(gateway, verifier, conversationService, realtime.ConnectionConfig{
		BufferSize:   config.ConnectionBufferSize,
		WriteTimeout: config.WSWriteTimeout,
		PongTimeout:  config.WSPongTimeout,
		PingInterval: config.WSPingInterval,
		ReadLimit:    4096,
	}, log)
	router := server.NewRouter(requestService, conversationService, directory, verifier, health, websocket.Handle(), log)

	// 6. Setup Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewHTTPServerWorker(log, config.Address(), router.Engine(), config.ShutdownTimeout),
		health,
	)

	if config.RedisURL != "" {
		options, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(options)
		defer func() { _ = client.Close() }()

		relay := realtime.NewRedisRelay(client, config.RelayChannel, gateway, log)
		gateway.UseRelay(relay)
		sup.Add(relay)
		log.Info("Realtime relay enabled", "channel", config.RelayChannel)
	}

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("DM-Lab starting", "address", config.Address(), "search", search != nil, "moderation", censor != nil)
	sup.Run(ctx)
	log.Info("Program stopped cleanly")
	return nil
}

func newModerator(config internal.Config, log *slog.Logger) (*moderation.Moderator, error) {
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := moderation.NewEmbeddedLoader().LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info("Moderation enabled", "languages", data.Languages, "words", len(data.Words))
	return moderation.NewModerator(data.Words, replacement, log)
}
