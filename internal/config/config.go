package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultJWTSecret 배포 환경에서 반드시 교체되어야 하는 기본 시크릿
const defaultJWTSecret = "change-this-secret-in-production"

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Hub       HubConfig
	Log       LogConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
	PongWait        time.Duration
	MaxMessageSize  int64
	SendQueueSize   int
	// 연결당 초당 허용 인바운드 프레임 수
	RateLimit float64
	RateBurst int
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// AuthConfig 인증 설정 (토큰 발급은 외부 인증 서비스 담당)
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// DatabaseConfig PostgreSQL 설정
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// RedisConfig Redis 설정 (Addr 가 비어 있으면 presence 미러 비활성화)
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PresenceTTL time.Duration
}

// HubConfig 보드 허브 이벤트 루프 설정
type HubConfig struct {
	InboxSize    int
	StoreTimeout time.Duration
}

// LogConfig 로깅 설정
type LogConfig struct {
	Level  string
	Format string
	Caller bool
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// 필수 환경 변수 검증
	jwtSecret := getRequiredEnv("JWT_SECRET")
	if jwtSecret == defaultJWTSecret {
		log.Fatal("🚨 CRITICAL: JWT_SECRET must be changed from default value in production!")
	}

	return FromEnv(jwtSecret)
}

// FromEnv JWT 시크릿을 제외한 나머지 설정을 환경 변수에서 읽음
func FromEnv(jwtSecret string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8080"),
			ReadTimeout:     getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDuration("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 16*1024),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 16*1024),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 10*time.Second),
			PongWait:        getDuration("WS_PONG_WAIT", 60*time.Second),
			MaxMessageSize:  int64(getInt("WS_MAX_MESSAGE_SIZE", 512*1024)),
			SendQueueSize:   getInt("WS_SEND_QUEUE_SIZE", 256),
			RateLimit:       getFloat("WS_RATE_LIMIT", 60),
			RateBurst:       getInt("WS_RATE_BURST", 120),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization"),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			AccessTokenExpiry: getDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			Issuer:            getEnv("JWT_ISSUER", "board-api"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getInt("REDIS_DB", 0),
			PresenceTTL: getDuration("REDIS_PRESENCE_TTL", 60*time.Second),
		},
		Hub: HubConfig{
			InboxSize:    getInt("HUB_INBOX_SIZE", 1024),
			StoreTimeout: getDuration("HUB_STORE_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Caller: getBool("LOG_CALLER", false),
		},
	}
}

// Validate 설정 값 검증
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth: JWT secret is required"))
	}
	if c.WebSocket.SendQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("websocket: send queue size must be positive, got %d", c.WebSocket.SendQueueSize))
	}
	if c.WebSocket.RateLimit <= 0 || c.WebSocket.RateBurst <= 0 {
		errs = append(errs, errors.New("websocket: rate limit and burst must be positive"))
	}
	if c.WebSocket.PongWait <= 0 {
		errs = append(errs, errors.New("websocket: pong wait must be positive"))
	}
	if c.Hub.InboxSize <= 0 {
		errs = append(errs, fmt.Errorf("hub: inbox size must be positive, got %d", c.Hub.InboxSize))
	}
	if c.Hub.StoreTimeout <= 0 {
		errs = append(errs, errors.New("hub: store timeout must be positive"))
	}
	if c.Redis.Addr != "" && c.Redis.PresenceTTL <= 0 {
		errs = append(errs, errors.New("redis: presence TTL must be positive when redis is enabled"))
	}

	return errors.Join(errs...)
}

// DSN PostgreSQL 접속 문자열 생성
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode, d.TimeZone,
	)
}

// PingPeriod 서버 ping 주기 (pong 대기 시간의 90%)
func (w WebSocketConfig) PingPeriod() time.Duration {
	return (w.PongWait * 9) / 10
}

// getRequiredEnv 필수 환경 변수 조회 (없으면 Fatal)
func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("🚨 CRITICAL: Required environment variable %s is not set!", key)
	}
	return value
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getFloat 실수형 환경 변수 조회
func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
