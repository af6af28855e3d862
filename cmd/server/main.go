package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realtime-board/internal/cache"
	"realtime-board/internal/config"
	"realtime-board/internal/database"
	"realtime-board/internal/handler"
	"realtime-board/internal/hub"
	"realtime-board/internal/logging"
	"realtime-board/internal/presence"
	"realtime-board/internal/server"
	"realtime-board/internal/service"
	"realtime-board/internal/supervisor"
)

func main() {
	// 설정 로드
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("❌ Invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	// 데이터베이스 연결
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Database connection failed")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ping 테스트
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = database.Ping(pingCtx)
	cancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Database ping failed")
	}
	logging.Info().Msg("✅ Database connected successfully")

	boards := service.NewBoardService(db)
	members := service.NewMemberService(db)
	canvas := service.NewCanvasService(db)

	// 비정상 종료로 남은 발표 스냅샷은 그대로 두고 개수만 기록
	if n, err := boards.CountPresentations(ctx); err != nil {
		logging.Warn().Err(err).Msg("could not count stored presentations")
	} else if n > 0 {
		logging.Warn().Int64("boards", n).Msg("stored presentations found from a previous run (cmd/reset_presentations clears them)")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// Redis presence 미러 (선택적)
	opts := hub.Options{
		InboxSize:    cfg.Hub.InboxSize,
		StoreTimeout: cfg.Hub.StoreTimeout,
	}
	var redisPing handler.Pinger
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logging.Warn().Err(err).Msg("⚠️ Redis unavailable, presence mirror disabled")
		} else {
			defer rdb.Close()
			mirror := presence.NewMirror(rdb, cfg.Redis.PresenceTTL)
			opts.Mirror = mirror
			tree.AddRealtimeService(mirror)
			redisPing = func(ctx context.Context) error { return cache.Health(ctx, rdb) }
		}
	} else {
		logging.Info().Msg("ℹ️ Redis not configured (presence mirror disabled)")
	}

	boardHub := hub.New(hub.Stores{
		Boards:        boards,
		Members:       members,
		Canvas:        canvas,
		Presentations: boards,
	}, opts)
	tree.AddRealtimeService(boardHub)

	srv := server.New(cfg, server.Deps{
		Hub:    boardHub,
		Gate:   hub.NewGate(boards, members),
		Users:  members,
		Health: handler.NewHealthHandler(database.Ping, redisPing),
	})
	tree.AddAPIService(srv)

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor stopped with error")
		database.Close()
		os.Exit(1)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("services", len(report)).Msg("services did not stop within the shutdown timeout")
	}
	logging.Info().Msg("server stopped")
}
