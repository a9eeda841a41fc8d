package retry

import (
	"context"
	"time"
)

// Policy - 재시도 정책. 모든 어댑터와 카피 생성기가 같은 콤비네이터를 공유한다.
type Policy struct {
	MaxAttempts int
	// Backoff - attempt(1부터 시작) 이후 대기 시간
	Backoff func(attempt int) time.Duration
	// IsRetryable - nil 이면 모든 에러 재시도
	IsRetryable func(error) bool
	// Sleep - nil 이면 time.Sleep (테스트에서 주입)
	Sleep func(time.Duration)
}

// Do - fn 을 정책에 따라 반복 실행한다. 시도 횟수와 마지막 에러를 반환.
// 재시도 단위는 fn 호출 전체이며, 중간 단계는 개별로 재시도하지 않는다.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) (int, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt - 1, lastErr
			}
			return attempt - 1, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		if p.IsRetryable != nil && !p.IsRetryable(lastErr) {
			return attempt, lastErr
		}

		if attempt < p.MaxAttempts && p.Backoff != nil {
			sleep(p.Backoff(attempt))
		}
	}
	return p.MaxAttempts, lastErr
}

// FixedDoubling - base 에서 시작해 매 시도마다 2배 (2s, 4s, 8s...)
func FixedDoubling(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

// Linear - base × attempt (3s, 6s, 9s...)
func Linear(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}
