package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realtime-board/internal/auth"
	"realtime-board/internal/config"
	"realtime-board/internal/handler"
	"realtime-board/internal/logging"
	"realtime-board/internal/middleware"
	"realtime-board/internal/model"
	"realtime-board/internal/service"
)

// UserFinder WebSocket 업그레이드 시 사용자 조회
type UserFinder interface {
	FindUser(ctx context.Context, userID int64) (*model.User, error)
}

// Deps 서버가 라우팅하는 협력 객체
type Deps struct {
	Hub    handler.BoardHub
	Gate   middleware.Authorizer
	Users  UserFinder
	Health *handler.HealthHandler
}

// Server Fiber 서버 래퍼
type Server struct {
	app             *fiber.App
	cfg             *config.Config
	jwtManager      *auth.JWTManager
	users           UserFinder
	boardHandler    *handler.BoardHandler
	boardWSHandler  *handler.BoardWSHandler
	healthHandler   *handler.HealthHandler
	boardMiddleware *middleware.BoardMiddleware
}

// New 새 서버 인스턴스 생성 (미들웨어/라우트까지 구성)
func New(cfg *config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Realtime Board Server",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384, // 16KB - 큰 헤더 허용
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	s := &Server{
		app: app,
		cfg: cfg,
		jwtManager: auth.NewJWTManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.AccessTokenExpiry,
			cfg.Auth.Issuer,
		),
		users:           deps.Users,
		boardHandler:    handler.NewBoardHandler(deps.Hub),
		boardWSHandler:  handler.NewBoardWSHandler(deps.Hub, cfg.WebSocket),
		healthHandler:   deps.Health,
		boardMiddleware: middleware.NewBoardMiddleware(deps.Gate),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// App 테스트용 Fiber 앱 접근
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddleware 미들웨어 설정
func (s *Server) setupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     logging.Writer(),
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, OPTIONS",
		AllowCredentials: true,
	}))
}

// setupRoutes 라우트 설정
func (s *Server) setupRoutes() {
	// 헬스체크 엔드포인트
	if s.healthHandler != nil {
		s.app.Get("/health", s.healthHandler.Check)
		s.app.Get("/health/live", s.healthHandler.Liveness)
		s.app.Get("/health/ready", s.healthHandler.Readiness)
	}

	// Prometheus 메트릭
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Board 라우트 그룹 (인증 + 팀 멤버십 필요)
	boardGroup := s.app.Group("/api/boards/:boardId",
		auth.AuthMiddleware(s.jwtManager),
		s.boardMiddleware.RequireBoardMembership(),
	)
	boardGroup.Get("/presence", s.boardHandler.GetPresence)
	boardGroup.Get("/presentation", s.boardHandler.GetPresentation)

	// WebSocket 보드 협업 엔드포인트
	s.app.Get("/ws/board", s.authenticateUpgrade, websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// authenticateUpgrade 업그레이드 전에 토큰 검증 및 사용자 로드
func (s *Server) authenticateUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token, err := auth.TokenFromRequest(c)
	if err != nil {
		// WebSocket은 JSON 응답 대신 연결 거부
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	user, err := s.users.FindUser(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		logging.Warn().Err(err).Int64("user_id", claims.UserID).Msg("user lookup failed on upgrade")
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	c.Locals(handler.UserLocalsKey, user)
	return c.Next()
}

// Serve ctx 가 취소될 때까지 리슨 (suture 서비스)
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Server.Port).Msg("🚀 board server listening")
		errCh <- s.app.Listen(s.cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		logging.Info().Msg("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(s.cfg.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) String() string {
	return "http-server"
}
