package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger 의존 컴포넌트 연결 확인
type Pinger func(ctx context.Context) error

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	database Pinger
	redis    Pinger
	timeout  time.Duration
}

// NewHealthHandler HealthHandler 생성 (redis 가 nil 이면 미설정으로 보고)
func NewHealthHandler(database, redis Pinger) *HealthHandler {
	return &HealthHandler{database: database, redis: redis, timeout: 2 * time.Second}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// Check 전체 상태 확인 (DB + Redis)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	// 1. Database 체크
	dbCheck := h.probe(c.UserContext(), h.database, "database ping failed")
	if dbCheck.Status != "healthy" {
		response.Status = "unhealthy"
	}
	response.Checks["database"] = dbCheck

	// 2. Redis 체크 (미러 전용이라 실패해도 degraded)
	if h.redis != nil {
		redisCheck := h.probe(c.UserContext(), h.redis, "redis unreachable")
		if redisCheck.Status != "healthy" {
			redisCheck.Status = "degraded"
		}
		response.Checks["redis"] = redisCheck
	} else {
		response.Checks["redis"] = ComponentCheck{Status: "not_configured"}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) probe(ctx context.Context, ping Pinger, failure string) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return ComponentCheck{Status: "unhealthy", Error: failure}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용 (DB 연결 체크)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.database(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
