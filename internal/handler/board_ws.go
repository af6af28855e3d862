package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"

	"realtime-board/internal/config"
	"realtime-board/internal/hub"
	"realtime-board/internal/logging"
	"realtime-board/internal/metrics"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

// UserLocalsKey 업그레이드 전에 인증된 사용자를 저장하는 Locals 키
const UserLocalsKey = "user"

// disconnectTimeout 연결 종료 이벤트를 허브에 넣기까지 대기 한도
const disconnectTimeout = 5 * time.Second

// BoardWSHandler 보드 WebSocket 핸들러 (연결당 reader + write pump)
type BoardWSHandler struct {
	hub BoardHub
	cfg config.WebSocketConfig
}

// NewBoardWSHandler BoardWSHandler 생성
func NewBoardWSHandler(hub BoardHub, cfg config.WebSocketConfig) *BoardWSHandler {
	return &BoardWSHandler{hub: hub, cfg: cfg}
}

// HandleWebSocket WebSocket 연결 처리
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("board websocket panic recovered")
			_ = c.Close()
		}
	}()

	user, ok := c.Locals(UserLocalsKey).(*model.User)
	if !ok {
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"invalid session"}}`))
		_ = c.Close()
		return
	}

	sess := session.New(user, h.cfg.SendQueueSize)
	log := logging.With().Str("conn_id", sess.ID).Int64("user_id", user.ID).Logger()

	if err := h.hub.Connect(sess.Context(), sess); err != nil {
		log.Warn().Err(err).Msg("hub rejected connection")
		sess.Close()
		_ = c.Close()
		return
	}
	log.Info().Msg("board websocket connected")

	writeDone := make(chan struct{})
	go h.writePump(c, sess, writeDone)

	h.readLoop(c, sess)

	// 허브가 세션을 닫으면 write pump 도 종료된다
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	if err := h.hub.Disconnect(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("disconnect not delivered to hub")
		sess.Close()
	}
	cancel()

	select {
	case <-writeDone:
	case <-time.After(disconnectTimeout):
		sess.Close()
		<-writeDone
	}
	_ = c.Close()
	log.Info().Dur("duration", sess.Duration()).Uint64("sent", sess.SentCount()).Msg("board websocket disconnected")
}

// readLoop 수신 프레임을 순서대로 허브에 전달
func (h *BoardWSHandler) readLoop(c *websocket.Conn, sess *session.Session) {
	if h.cfg.MaxMessageSize > 0 {
		c.SetReadLimit(h.cfg.MaxMessageSize)
	}
	_ = c.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateBurst)

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Str("conn_id", sess.ID).Msg("websocket read error")
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		if msgType != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			metrics.EventsDropped.WithLabelValues(metrics.DropRateLimited).Inc()
			continue
		}

		if err := h.hub.Dispatch(sess.Context(), sess, data); err != nil {
			if errors.Is(err, hub.ErrHubStopped) || sess.Context().Err() != nil {
				return
			}
			logging.Debug().Err(err).Str("conn_id", sess.ID).Msg("inbound frame dropped")
		}
	}
}

// writePump 송신 큐를 소켓에 기록, 주기적으로 ping 전송
func (h *BoardWSHandler) writePump(c *websocket.Conn, sess *session.Session, done chan<- struct{}) {
	ticker := time.NewTicker(h.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-sess.Outbound:
			_ = c.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				// 세션 종료: close 프레임 후 reader 를 깨움
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = c.Close()
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
