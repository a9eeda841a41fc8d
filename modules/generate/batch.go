package generate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/events"
)

// runBatch - N개 변형을 동시에 생성한다. 조인(fan-in)이지 레이스가 아니다:
// 어떤 브랜치도 다른 브랜치의 성패 때문에 취소되지 않으며, N개가 전부
// 확정된 뒤에만 결과를 조립한다. 템플릿 매치는 시작 전에 이미 확정된
// 읽기 전용 값이라 브랜치 간 동기화가 필요 없다.
func (s *Service) runBatch(ctx context.Context, gc *GenerationContext, copies []AdCopy, mode Mode, match *TemplateMatch, provider Provider, requestID string) (*BatchResult, error) {
	s.sink.Emit(ctx, events.Started("batch", requestID))

	outcomes := make([]BatchItemOutcome, len(copies))

	var g errgroup.Group
	for i := range copies {
		g.Go(func() error {
			item := &copies[i]
			prompt := ComposePrompt(item, gc.Brand, mode, match)

			in := &ProviderInput{
				Prompt:            prompt,
				ReferenceImageURL: referenceURLFor(gc, mode),
				Quality:           gc.Quality,
				AspectRatio:       gc.AspectRatio,
				Temperature:       gc.Temperature,
				// 배치는 항목별 재시도를 끈다: N개의 동시 호출 위에
				// 재시도 폭풍이 쌓이는 것을 막기 위함.
				Retries: 0,
				OwnerID: gc.UserID,
			}

			result, err := provider.Generate(ctx, in)
			if err != nil {
				outcomes[i] = BatchItemOutcome{Copy: *item, Error: err.Error()}
				s.sink.Emit(ctx, events.Failed("batch.item", requestID, err.Error()))
				return nil
			}
			outcomes[i] = BatchItemOutcome{Copy: *item, Result: result}
			s.sink.Emit(ctx, events.Succeeded("batch.item", requestID, map[string]any{"index": i}))
			return nil
		})
	}
	g.Wait()

	succeeded := 0
	for i := range outcomes {
		if outcomes[i].Result != nil {
			succeeded++
		}
	}
	failed := len(outcomes) - succeeded

	if succeeded < s.opts.BatchMinSuccess {
		err := &errs.ThresholdExceededError{Succeeded: succeeded, Failed: failed, Minimum: s.opts.BatchMinSuccess}
		s.sink.Emit(ctx, events.Failed("batch", requestID, err.Error()))
		return nil, err
	}

	s.sink.Emit(ctx, events.Succeeded("batch", requestID, map[string]any{
		"succeeded": succeeded,
		"failed":    failed,
	}))

	return &BatchResult{
		Outcomes:  outcomes,
		Succeeded: succeeded,
		Failed:    failed,
	}, nil
}

// referenceURLFor - Original 은 참조 없이 호출한다 (브랜드 컬러 힌트는 프롬프트에 들어있음)
func referenceURLFor(gc *GenerationContext, mode Mode) string {
	if mode == ModeOriginal {
		return ""
	}
	return gc.ReferenceImageURL
}
