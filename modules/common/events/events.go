package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// 파이프라인 단계 이벤트 이름
const (
	StageStarted   = "stage.started"
	StageSucceeded = "stage.succeeded"
	StageFailed    = "stage.failed"
)

// Event - 파이프라인 단계 계측 이벤트
type Event struct {
	Name      string         `json:"name"`
	Stage     string         `json:"stage"`
	RequestID string         `json:"requestId,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	At        time.Time      `json:"at"`
}

// Sink - 계측 싱크. 각 컴포넌트에 생성자로 주입되며 제어 흐름과 분리된다.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

func Started(stage, requestID string) Event {
	return Event{Name: StageStarted, Stage: stage, RequestID: requestID, At: time.Now().UTC()}
}

func Succeeded(stage, requestID string, fields map[string]any) Event {
	return Event{Name: StageSucceeded, Stage: stage, RequestID: requestID, Fields: fields, At: time.Now().UTC()}
}

func Failed(stage, requestID, reason string) Event {
	return Event{Name: StageFailed, Stage: stage, RequestID: requestID, Reason: reason, At: time.Now().UTC()}
}

// NopSink - 아무것도 하지 않는 싱크 (테스트 기본값)
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

// LogSink - zerolog 기반 구조화 로그 싱크
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev Event) {
	var line *zerolog.Event
	if ev.Name == StageFailed {
		line = s.logger.Warn()
	} else {
		line = s.logger.Info()
	}
	line = line.Str("event", ev.Name).Str("stage", ev.Stage)
	if ev.RequestID != "" {
		line = line.Str("requestId", ev.RequestID)
	}
	if ev.Reason != "" {
		line = line.Str("reason", ev.Reason)
	}
	if len(ev.Fields) > 0 {
		line = line.Interface("fields", ev.Fields)
	}
	line.Send()
}

// RedisSink - 이벤트를 Redis 채널로 발행한다. 웹소켓 허브가 이 채널을 구독해
// 연결된 클라이언트에게 중계한다. 발행 실패는 파이프라인에 영향을 주지 않는다.
type RedisSink struct {
	rdb     *redis.Client
	channel string
	logger  zerolog.Logger
}

func NewRedisSink(rdb *redis.Client, channel string, logger zerolog.Logger) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel, logger: logger}
}

func (s *RedisSink) Emit(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn().Err(err).Str("channel", s.channel).Msg("event publish failed")
	}
}

// MultiSink - 여러 싱크로 팬아웃
type MultiSink []Sink

func Multi(sinks ...Sink) Sink {
	return MultiSink(sinks)
}

func (m MultiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}
