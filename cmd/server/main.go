package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"babelroom/auth"
	"babelroom/domain"
	"babelroom/observability"
	"babelroom/repositories"
	"babelroom/runtime"
	"babelroom/runtime/workers"
	"babelroom/search"
	"babelroom/services"
	"babelroom/translation"
	"babelroom/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle. Keeping
// the logic out of main ensures deferred cleanup executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	supported := domain.ParseLanguages(config.SupportedLanguages)

	// 2. Storage (BadgerDB) & full-text index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories, metrics & translation chain
	metrics := observability.NewMetrics()
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	roomRepository := repositories.NewRoomRepository(db, config.RoomCreateAttempts)
	userRepository := repositories.NewUserRepository(db)

	translator := translation.NewFallback(
		translation.NewClient(log, config.TranslateEndpoint, config.TranslateAPIKey,
			supported, config.TranslateTimeout),
		log, metrics)

	index := search.NewIndex(indexWriter, log)

	// 4. Supervision & orchestration
	sup := workers.NewSupervisor(log)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, sup, registry, messageRepository,
		metrics, config.BufferSize, config.SinkTimeout, config.HealthInterval)
	orchestrator.Add(search.NewIndexSink(index, log))

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 6. Services & HTTP surface
	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens, supported)
	chatService := services.NewChatService(log, orchestrator, roomRepository, index,
		translator, metrics, config.ConnectionBufferSize)

	server := web.NewServer(log, chatService, authService, tokens, metrics, config.SearchLimit)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Router()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address,
			"languages", supported.String(), "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
