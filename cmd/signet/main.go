package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet"
	"github.com/layer-3/signet/adapters/balance"
	"github.com/layer-3/signet/adapters/events"
	"github.com/layer-3/signet/adapters/store"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/ports"
	transport "github.com/layer-3/signet/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	var (
		addr          = pflag.String("addr", "", "listen address (overrides SIGNET_HTTP_ADDR)")
		envFiles      = pflag.StringSlice("env-file", []string{".env", ".env.local"}, "dotenv files to load when present")
		staticBalance = pflag.String("static-balance", "", "report this balance for every account instead of querying the chain")
		debug         = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *addr, *envFiles, *staticBalance); err != nil {
		logger.Error("signet exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr string, envFiles []string, staticBalance string) error {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	var (
		nonceStore ports.NonceStore
		eventPub   ports.EventPublisher
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewSlogLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create redis publisher: %w", err)
		}
		defer publisher.Close()

		nonceStore = store.NewRedisStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		logger.Warn("SIGNET_REDIS_URL not set, nonces are kept in memory and events are dropped")
		nonceStore = store.NewMemoryStore()
	}

	var balances ports.BalanceLookup
	if staticBalance != "" {
		b, ok := new(big.Int).SetString(staticBalance, 10)
		if !ok || b.Sign() < 0 {
			return fmt.Errorf("invalid --static-balance %q", staticBalance)
		}
		balances = balance.Static{Balance: b}
	} else {
		lookup := balance.NewRPCLookup(cfg.RPCEndpoint)
		defer lookup.Close()
		balances = lookup
	}

	client := signet.New(cfg, balances, nonceStore, eventPub, logger)

	gin.SetMode(gin.ReleaseMode)
	handlers := transport.NewAuthHandlers(client, cfg.CookieSecure, logger)
	router := transport.SetupRouter(handlers, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("signet starting", "addr", srv.Addr, "service_uri", cfg.ServiceURI, "network", cfg.TargetNetworkID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
