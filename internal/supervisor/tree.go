// Package supervisor 서버의 장기 실행 서비스를 suture 트리로 관리
//
// 허브와 접속자 미러는 realtime 계층, HTTP 서버는 api 계층에 두어
// 허브가 재시작되어도 리스너는 유지된다.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig 재시작 정책 (0 값은 suture 기본값)
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree 계층별 하위 supervisor를 가진 루트
type Tree struct {
	root     *suture.Supervisor
	realtime *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewTree supervisor 계층 생성 (생명주기 이벤트는 logger로)
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}

	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := childSpec
	rootSpec.EventHook = handler.MustHook()

	root := suture.New("board-server", rootSpec)
	realtime := suture.New("realtime-layer", childSpec)
	api := suture.New("api-layer", childSpec)
	root.Add(realtime)
	root.Add(api)

	return &Tree{root: root, realtime: realtime, api: api, config: config}
}

// AddRealtimeService 허브 또는 허브에 붙는 워커 추가
func (t *Tree) AddRealtimeService(svc suture.Service) suture.ServiceToken {
	return t.realtime.Add(svc)
}

// AddAPIService HTTP 리스너 추가
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve ctx 취소 후 모든 서비스가 멈출 때까지 블록
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// UnstoppedServiceReport 종료 제한 시간을 넘긴 서비스 목록
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
