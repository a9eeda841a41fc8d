package generate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/events"
)

// Service - 생성 파이프라인 오케스트레이터.
// 컨텍스트 해석 → 카피 → (필요시) 템플릿 감지 → 프롬프트 합성 → 프로바이더 호출 → 영속.
// 모든 외부 클라이언트는 생성자에서 주입된다.
type Service struct {
	resolver  *Resolver
	copygen   *CopyGenerator
	detector  *TemplateDetector
	providers map[string]Provider
	video     Provider
	storage   ArtifactGateway
	sink      events.Sink
	opts      Options
}

func NewService(resolver *Resolver, copygen *CopyGenerator, detector *TemplateDetector, providers map[string]Provider, video Provider, storage ArtifactGateway, sink events.Sink, opts Options) *Service {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Service{
		resolver:  resolver,
		copygen:   copygen,
		detector:  detector,
		providers: providers,
		video:     video,
		storage:   storage,
		sink:      sink,
		opts:      opts,
	}
}

// providerFor - 요청의 provider 키로 어댑터를 고른다. 비어 있으면 기본 어댑터.
func (s *Service) providerFor(name string) (Provider, error) {
	if name == "" {
		name = s.opts.DefaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, &errs.PreconditionError{Reason: fmt.Sprintf("unknown provider: %s", name)}
	}
	return p, nil
}

// GenerateSingle - 단건 생성. 한 벌의 카피와 한 장의 아티팩트를 돌려준다.
func (s *Service) GenerateSingle(ctx context.Context, req *Request) (*SingleResponse, error) {
	requestID := uuid.NewString()

	gc, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	provider, err := s.providerFor(req.Provider)
	if err != nil {
		return nil, err
	}

	copy, err := s.copygen.GenerateSingle(ctx, gc, requestID)
	if err != nil {
		return nil, err
	}

	mode := gc.Mode
	var match *TemplateMatch
	if mode == ModeReference {
		// 감지는 비필수 경로: 실패해도 Reference 모드로 그대로 진행한다.
		if match = s.detector.Detect(ctx, gc, copy, requestID); match != nil {
			mode = ModeReferenceWithTemplate
		}
	}

	prompt := ComposePrompt(copy, gc.Brand, mode, match)

	in := &ProviderInput{
		Prompt:            prompt,
		ReferenceImageURL: referenceURLFor(gc, mode),
		Quality:           gc.Quality,
		AspectRatio:       gc.AspectRatio,
		Temperature:       gc.Temperature,
		Retries:           s.opts.SingleRetries,
		OwnerID:           gc.UserID,
	}

	s.sink.Emit(ctx, events.Started("provider", requestID))
	result, err := provider.Generate(ctx, in)
	if err != nil {
		s.sink.Emit(ctx, events.Failed("provider", requestID, err.Error()))
		return nil, err
	}
	s.sink.Emit(ctx, events.Succeeded("provider", requestID, map[string]any{"provider": result.ProviderName}))

	return &SingleResponse{
		Copy:        *copy,
		Artifact:    *result,
		Mode:        mode,
		ArtifactURL: s.signBestEffort(ctx, result.ArtifactPath, requestID),
	}, nil
}

// GenerateBatch - N개 포지셔닝 앵글로 변형을 동시 생성한다.
// angles 가 비면 기본 앵글 라이브러리 전체를 쓴다.
func (s *Service) GenerateBatch(ctx context.Context, req *Request, angles []string) (*BatchResult, error) {
	requestID := uuid.NewString()

	gc, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	provider, err := s.providerFor(req.Provider)
	if err != nil {
		return nil, err
	}

	if len(angles) == 0 {
		angles = s.opts.AngleNames
	}

	copies, err := s.copygen.GenerateBatch(ctx, gc, angles, requestID)
	if err != nil {
		return nil, err
	}

	// 템플릿 감지는 배치당 한 번만. 매치는 모든 변형이 공유한다.
	mode := gc.Mode
	var match *TemplateMatch
	if mode == ModeReference {
		if match = s.detector.Detect(ctx, gc, &copies[0], requestID); match != nil {
			mode = ModeReferenceWithTemplate
		}
	}

	return s.runBatch(ctx, gc, copies, mode, match, provider, requestID)
}

// GenerateVideo - 정지 프롬프트를 압축해 모션 지시어와 함께 비디오 프로바이더에 넘긴다.
func (s *Service) GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResponse, error) {
	requestID := uuid.NewString()

	if s.video == nil {
		return nil, &errs.PreconditionError{Reason: "video provider not configured"}
	}
	if req.StillPrompt == "" {
		return nil, &errs.PreconditionError{Reason: "stillPrompt is required"}
	}

	prompt := ComposeVideoPrompt(req.StillPrompt, req.MotionDirective)

	in := &ProviderInput{
		Prompt:            prompt,
		ReferenceImageURL: req.ReferenceImageURL,
		AspectRatio:       req.AspectRatio,
		Retries:           s.opts.SingleRetries,
		OwnerID:           req.UserID,
		DurationSeconds:   req.DurationSeconds,
	}

	s.sink.Emit(ctx, events.Started("provider", requestID))
	result, err := s.video.Generate(ctx, in)
	if err != nil {
		s.sink.Emit(ctx, events.Failed("provider", requestID, err.Error()))
		return nil, err
	}
	s.sink.Emit(ctx, events.Succeeded("provider", requestID, map[string]any{"provider": result.ProviderName}))

	return &VideoResponse{
		Artifact:    *result,
		ArtifactURL: s.signBestEffort(ctx, result.ArtifactPath, requestID),
	}, nil
}

// signBestEffort - 서명 URL 발급 실패는 생성 실패가 아니다. 빈 문자열로 둔다.
func (s *Service) signBestEffort(ctx context.Context, path, requestID string) string {
	if s.storage == nil || path == "" {
		return ""
	}
	url, err := s.storage.Sign(ctx, path, s.opts.SignTTLSeconds)
	if err != nil {
		s.sink.Emit(ctx, events.Failed("sign", requestID, err.Error()))
		return ""
	}
	return url
}
