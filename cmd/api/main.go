package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/arogya-chat/backend/internal/config"
	"github.com/zhouzirui/arogya-chat/backend/internal/handler"
	"github.com/zhouzirui/arogya-chat/backend/internal/handler/ws"
	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using system environment only")
	}

	cat, err := catalog.Load(cfg.Chat.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Chat.CatalogPath).Msg("failed to load response catalog")
	}
	lang, _ := cfg.Chat.Language()
	loc, _ := cfg.Chat.Location()

	chatService := chat.NewService(cat, lang)
	if _, err := chatService.EnsureSession(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to open initial session")
	}
	dispatcher := dispatch.NewService(chatService, cat, dispatch.WithDelay(cfg.Chat.ReplyDelay))

	router := handler.NewRouter(chatService, dispatcher, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Location:       loc,
		WebSocket: ws.Limits{
			PerSecond: cfg.WebSocket.RatePerSecond,
			Burst:     cfg.WebSocket.Burst,
		},
	})

	if err := startServer(ctx, cfg.Server, router, dispatcher); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("shutdown complete")
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, dispatcher *dispatch.Service) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("health chat backend listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runServer(gctx, srv, serverCfg.ShutdownTimeout)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		return dispatcher.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runServer(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
