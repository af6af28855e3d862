package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realtime-board/internal/logging"
	"realtime-board/internal/metrics"
	"realtime-board/internal/model"
)

// UpdatesChannel 보드 접속자 변경 알림 채널
const UpdatesChannel = "board_presence_updates"

// BoardPresence Redis에 저장될 보드 접속자 스냅샷
type BoardPresence struct {
	BoardID   int64               `json:"boardId"`
	Users     []model.Participant `json:"users"`
	UpdatedAt int64               `json:"updatedAt"`
}

// Client 미러가 사용하는 Redis 명령 (*redis.Client 가 만족)
type Client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Mirror 허브의 접속자 목록을 Redis에 복제 (읽기 전용 사본)
//
// Publish 는 허브 이벤트 루프에서 호출되므로 절대 블록하지 않는다.
// 보드별로 마지막 목록만 남기고 Serve 워커가 기록하며 실패는 로그만 남긴다.
type Mirror struct {
	client Client
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[int64]BoardPresence
	notify  chan struct{}

	// 워커 고루틴 전용
	active map[int64]struct{}
}

// NewMirror 생성자
func NewMirror(client Client, ttl time.Duration) *Mirror {
	return &Mirror{
		client:  client,
		ttl:     ttl,
		now:     time.Now,
		log:     logging.With().Str("component", "presence-mirror").Logger(),
		pending: make(map[int64]BoardPresence),
		notify:  make(chan struct{}, 1),
		active:  make(map[int64]struct{}),
	}
}

// BoardKey 보드별 Redis 키
func BoardKey(boardID int64) string {
	return fmt.Sprintf("presence:board:%d", boardID)
}

// Publish 접속자 목록 변경 등록 (아직 기록 전인 같은 보드 목록은 덮어씀)
func (m *Mirror) Publish(boardID int64, users []model.Participant) {
	update := BoardPresence{
		BoardID:   boardID,
		Users:     append([]model.Participant(nil), users...),
		UpdatedAt: m.now().Unix(),
	}

	m.mu.Lock()
	if _, ok := m.pending[boardID]; ok {
		metrics.MirrorUpdates.WithLabelValues(metrics.MirrorCoalesced).Inc()
	}
	m.pending[boardID] = update
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Serve 대기 중인 목록을 Redis에 기록, TTL 절반 주기로 만료 시간 갱신
func (m *Mirror) Serve(ctx context.Context) error {
	interval := m.ttl / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("ttl", m.ttl).Msg("presence mirror started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.notify:
			m.flush(ctx)
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

func (m *Mirror) String() string {
	return "presence-mirror"
}

// flush 대기 중인 보드 목록을 모두 기록
func (m *Mirror) flush(ctx context.Context) {
	m.mu.Lock()
	batch := m.pending
	m.pending = make(map[int64]BoardPresence, len(batch))
	m.mu.Unlock()

	for _, update := range batch {
		m.write(ctx, update)
	}
}

// write 한 보드의 스냅샷 저장 (빈 목록이면 키 삭제) 후 변경 알림
func (m *Mirror) write(ctx context.Context, update BoardPresence) {
	key := BoardKey(update.BoardID)

	var err error
	if len(update.Users) == 0 {
		delete(m.active, update.BoardID)
		err = m.client.Del(ctx, key).Err()
	} else {
		var data []byte
		data, err = json.Marshal(update)
		if err == nil {
			m.active[update.BoardID] = struct{}{}
			err = m.client.Set(ctx, key, data, m.ttl).Err()
		}
	}
	if err != nil {
		metrics.MirrorUpdates.WithLabelValues(metrics.MirrorFailed).Inc()
		m.log.Warn().Err(err).Int64("board_id", update.BoardID).Msg("[Redis] presence write failed")
		return
	}

	if err := m.client.Publish(ctx, UpdatesChannel, update.BoardID).Err(); err != nil {
		m.log.Debug().Err(err).Int64("board_id", update.BoardID).Msg("[Redis] presence publish failed")
	}
	metrics.MirrorUpdates.WithLabelValues(metrics.MirrorWritten).Inc()
}

// refresh 접속자가 있는 보드 키의 TTL 연장 (Heartbeat)
func (m *Mirror) refresh(ctx context.Context) {
	for boardID := range m.active {
		if err := m.client.Expire(ctx, BoardKey(boardID), m.ttl).Err(); err != nil {
			m.log.Debug().Err(err).Int64("board_id", boardID).Msg("[Redis] presence ttl refresh failed")
		}
	}
}

// GetBoardPresence Redis에 복제된 보드 접속자 조회 (없으면 nil)
func GetBoardPresence(ctx context.Context, client Client, boardID int64) (*BoardPresence, error) {
	data, err := client.Get(ctx, BoardKey(boardID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var bp BoardPresence
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("decode presence for board %d: %w", boardID, err)
	}
	return &bp, nil
}
