package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"reviewme/internal/feed"
	"reviewme/internal/server"
	"reviewme/internal/storage"
	"reviewme/pkg/logger"
	"reviewme/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		// logger is not configured yet
		logger.Init("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatal().Err(err).Msg("api server")
	}
}

// run serves until ctx is done or a server fails. Everything it opens is
// closed before it returns.
func run(ctx context.Context, cfg *utils.Config) error {
	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	hub := feed.NewHub(0)
	hubCtx, stopHub := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	stopBackground := func() {
		stopHub()
		wg.Wait()
	}
	defer stopBackground()

	errCh := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(hubCtx)
	}()

	events := feed.Multi{hub}

	var redisPub *feed.RedisPublisher
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		origin := uuid.NewString()
		redisPub = feed.NewRedisPublisher(rdb, feed.DefaultChannel, origin)
		defer redisPub.Wait()
		events = append(events, redisPub)

		relay := feed.NewRedisRelay(rdb, feed.DefaultChannel, origin, hub)
		if err := relay.Subscribe(ctx); err != nil {
			return fmt.Errorf("subscribe to redis feed: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := relay.Run(hubCtx); err != nil {
				errCh <- err
			}
		}()
		// the relay has to be gone before rdb closes
		defer stopBackground()
		log.Info().Str("channel", feed.DefaultChannel).Str("origin", origin).Msg("redis feed relay enabled")
	}

	var tcpSrv *feed.Server
	if cfg.FeedTCPAddr != "" {
		tcpSrv = feed.NewServer(cfg.FeedTCPAddr, hub)
		// bind before serving HTTP so a taken port fails the start
		if err := tcpSrv.Listen(); err != nil {
			return fmt.Errorf("feed tcp listen on %s: %w", cfg.FeedTCPAddr, err)
		}
		defer func() {
			if err := tcpSrv.Close(); err != nil {
				log.Warn().Err(err).Msg("tcp shutdown")
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Serve(); err != nil {
				errCh <- err
			}
		}()
	}

	router := server.NewRouter(server.Deps{Config: cfg, Stores: stores, Hub: hub, Events: events})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.Addr()).Str("store", stores.Backend).Str("env", cfg.Env).Msg("http api server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("server error")
	}

	log.Info().Msg("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	return runErr
}
