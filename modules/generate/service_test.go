package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"adcanvas-server/modules/common/errs"
)

// fakeProvider - 동시 호출을 견디는 프로바이더 대역.
// failWhen 이 프롬프트에 포함된 호출만 실패시킨다.
type fakeProvider struct {
	name     string
	failWhen []string

	mu    sync.Mutex
	calls []*ProviderInput
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(_ context.Context, in *ProviderInput) (*GenerationResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, in)
	n := len(p.calls)
	p.mu.Unlock()

	for _, marker := range p.failWhen {
		if strings.Contains(in.Prompt, marker) {
			return nil, &errs.ProviderError{Provider: p.name, Attempts: 1, Err: errors.New("synthetic failure")}
		}
	}
	return &GenerationResult{
		ArtifactPath: fmt.Sprintf("generated/%s/artifact-%d.webp", in.OwnerID, n),
		ProviderName: p.name,
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakeGateway - Sign 만 쓰는 아티팩트 게이트웨이 대역
type fakeGateway struct {
	signErr error
}

func (g *fakeGateway) Put(_ context.Context, _ []byte, _, ownerID string) (string, error) {
	return "generated/" + ownerID + "/put.webp", nil
}

func (g *fakeGateway) Sign(_ context.Context, path string, _ int) (string, error) {
	if g.signErr != nil {
		return "", g.signErr
	}
	return "https://signed.example.com/" + path, nil
}

type serviceFixture struct {
	store    *fakeBrandStore
	copies   *fakeCopyModel
	vision   *fakeVisionModel
	provider *fakeProvider
	gateway  *fakeGateway
	service  *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:    newFakeStore(),
		copies:   &fakeCopyModel{},
		vision:   &fakeVisionModel{response: []byte(`{"isMeme": false}`)},
		provider: &fakeProvider{name: "imagine"},
		gateway:  &fakeGateway{},
	}

	opts := DefaultOptions()
	opts.DefaultProvider = f.provider.name

	copygen := NewCopyGenerator(f.copies, opts, nil)
	copygen.sleep = func(time.Duration) {}

	f.service = NewService(
		NewResolver(f.store, opts),
		copygen,
		NewTemplateDetector(f.vision, nil),
		map[string]Provider{f.provider.name: f.provider},
		nil,
		f.gateway,
		nil,
		opts,
	)
	return f
}

func TestGenerateSingleOriginalFlow(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Problem-Solution")}

	resp, err := f.service.GenerateSingle(context.Background(), &Request{UserID: "user-1", Flow: FlowAd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Mode != ModeOriginal {
		t.Errorf("Mode = %s, want original", resp.Mode)
	}
	// 참조가 없으면 비전 분류는 호출되지 않는다
	if f.vision.calls != 0 {
		t.Errorf("vision called %d times, want 0", f.vision.calls)
	}
	if f.provider.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", f.provider.callCount())
	}

	in := f.provider.calls[0]
	if in.ReferenceImageURL != "" {
		t.Errorf("ReferenceImageURL = %q, want empty", in.ReferenceImageURL)
	}
	if in.Retries != 1 {
		t.Errorf("Retries = %d, want 1", in.Retries)
	}
	if !strings.Contains(in.Prompt, "Name: Acme") {
		t.Errorf("prompt missing brand name\n%s", in.Prompt)
	}
	if !strings.Contains(in.Prompt, `Headline: "Stop losing weekends to invoices"`) {
		t.Errorf("prompt missing hook\n%s", in.Prompt)
	}
	if resp.ArtifactURL != "https://signed.example.com/"+resp.Artifact.ArtifactPath {
		t.Errorf("ArtifactURL = %q", resp.ArtifactURL)
	}
}

func TestGenerateSingleReferenceNoTemplate(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Social Proof")}

	resp, err := f.service.GenerateSingle(context.Background(), &Request{
		UserID: "user-1", Flow: FlowAd, ReferenceImageID: "img-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Mode != ModeReference {
		t.Errorf("Mode = %s, want reference", resp.Mode)
	}
	if f.vision.calls != 1 {
		t.Errorf("vision called %d times, want 1", f.vision.calls)
	}

	prompt := f.provider.calls[0].Prompt
	if !strings.Contains(prompt, "exact same layout") {
		t.Errorf("reference prompt missing layout constraint\n%s", prompt)
	}
	if strings.Contains(prompt, "Panel") {
		t.Errorf("non-template prompt should not mention panels\n%s", prompt)
	}
	if f.provider.calls[0].ReferenceImageURL != "https://cdn.example.com/img-1.png" {
		t.Errorf("ReferenceImageURL = %q", f.provider.calls[0].ReferenceImageURL)
	}
}

func TestGenerateSinglePromotesToTemplate(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Us vs Them")}
	f.vision.response = []byte(drakeResponse)

	resp, err := f.service.GenerateSingle(context.Background(), &Request{
		UserID: "user-1", Flow: FlowAd, ReferenceImageID: "img-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Mode != ModeReferenceWithTemplate {
		t.Errorf("Mode = %s, want reference_template", resp.Mode)
	}
	prompt := f.provider.calls[0].Prompt
	if !strings.Contains(prompt, "Drake Hotline Bling") {
		t.Errorf("template prompt missing template name\n%s", prompt)
	}
	if !strings.Contains(prompt, "Panel 1") {
		t.Errorf("template prompt missing panel instructions\n%s", prompt)
	}
}

// 비전 모델이 죽어도 단건 생성은 Reference 모드로 완료된다
func TestGenerateSingleSurvivesVisionFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Social Proof")}
	f.vision.err = errors.New("vision offline")

	resp, err := f.service.GenerateSingle(context.Background(), &Request{
		UserID: "user-1", Flow: FlowAd, ReferenceImageID: "img-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Mode != ModeReference {
		t.Errorf("Mode = %s, want reference", resp.Mode)
	}
}

func TestGenerateSingleSignFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Problem-Solution")}
	f.gateway.signErr = errors.New("sign endpoint down")

	resp, err := f.service.GenerateSingle(context.Background(), &Request{UserID: "user-1", Flow: FlowAd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ArtifactURL != "" {
		t.Errorf("ArtifactURL = %q, want empty on sign failure", resp.ArtifactURL)
	}
	if resp.Artifact.ArtifactPath == "" {
		t.Errorf("artifact path missing")
	}
}

func TestGenerateSingleUnknownProvider(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.GenerateSingle(context.Background(), &Request{
		UserID: "user-1", Flow: FlowAd, Provider: "does-not-exist",
	})

	var pre *errs.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
}

func TestGenerateBatchPartialSuccessAboveThreshold(t *testing.T) {
	f := newServiceFixture(t)
	angles := DefaultOptions().AngleNames
	f.copies.responses = [][]byte{batchJSON(t, angles)}
	// 5개 중 2개 실패 (3 성공 = 최소 기준 충족)
	f.provider.failWhen = []string{"Angle: Social Proof", "Angle: Us vs Them"}

	result, err := f.service.GenerateBatch(context.Background(), &Request{UserID: "user-1", Flow: FlowAd}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Succeeded != 3 || result.Failed != 2 {
		t.Errorf("succeeded=%d failed=%d, want 3/2", result.Succeeded, result.Failed)
	}
	if len(result.Outcomes) != 5 {
		t.Fatalf("got %d outcomes, want 5", len(result.Outcomes))
	}

	// 결과 순서는 카피 순서와 일치하고, Result/Error 는 정확히 하나만 채워진다
	for i, out := range result.Outcomes {
		if out.Copy.PositioningAngle != angles[i] {
			t.Errorf("outcome %d angle = %q, want %q", i, out.Copy.PositioningAngle, angles[i])
		}
		hasResult := out.Result != nil
		hasError := out.Error != ""
		if hasResult == hasError {
			t.Errorf("outcome %d: result=%v error=%q, want exactly one", i, out.Result, out.Error)
		}
	}
	if result.Outcomes[1].Error == "" || result.Outcomes[4].Error == "" {
		t.Errorf("expected failures at Social Proof and Us vs Them: %+v", result.Outcomes)
	}
}

func TestGenerateBatchBelowThreshold(t *testing.T) {
	f := newServiceFixture(t)
	angles := DefaultOptions().AngleNames
	f.copies.responses = [][]byte{batchJSON(t, angles)}
	// 5개 중 3개 실패 (2 성공 < 최소 3)
	f.provider.failWhen = []string{"Angle: Problem-Solution", "Angle: Social Proof", "Angle: Us vs Them"}

	_, err := f.service.GenerateBatch(context.Background(), &Request{UserID: "user-1", Flow: FlowAd}, nil)

	var threshold *errs.ThresholdExceededError
	if !errors.As(err, &threshold) {
		t.Fatalf("err = %v, want ThresholdExceededError", err)
	}
	if threshold.Succeeded != 2 || threshold.Failed != 3 || threshold.Minimum != 3 {
		t.Errorf("threshold = %+v", threshold)
	}
	// 기준 미달이어도 전 항목은 끝까지 실행된다
	if f.provider.callCount() != 5 {
		t.Errorf("provider called %d times, want 5", f.provider.callCount())
	}
}

// 배치에서 비전 분류는 정확히 한 번만 호출된다
func TestGenerateBatchDetectsTemplateOnce(t *testing.T) {
	f := newServiceFixture(t)
	angles := DefaultOptions().AngleNames
	f.copies.responses = [][]byte{batchJSON(t, angles)}
	f.vision.response = []byte(drakeResponse)

	result, err := f.service.GenerateBatch(context.Background(), &Request{
		UserID: "user-1", Flow: FlowAd, ReferenceImageID: "img-1",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.vision.calls != 1 {
		t.Errorf("vision called %d times, want exactly 1", f.vision.calls)
	}
	if result.Succeeded != 5 {
		t.Errorf("succeeded = %d, want 5", result.Succeeded)
	}
	// 매치는 모든 변형이 공유한다
	for i, in := range f.provider.calls {
		if !strings.Contains(in.Prompt, "Drake Hotline Bling") {
			t.Errorf("variant %d prompt missing shared template\n%s", i, in.Prompt)
		}
		if in.Retries != 0 {
			t.Errorf("variant %d Retries = %d, want 0", i, in.Retries)
		}
	}
}

func TestGenerateBatchCopyFailureAbortsBeforeProviders(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{[]byte(`broken`), []byte(`still broken`)}

	_, err := f.service.GenerateBatch(context.Background(), &Request{UserID: "user-1", Flow: FlowAd}, nil)

	var cge *errs.CopyGenerationError
	if !errors.As(err, &cge) {
		t.Fatalf("err = %v, want CopyGenerationError", err)
	}
	if f.provider.callCount() != 0 {
		t.Errorf("provider called %d times before copy succeeded", f.provider.callCount())
	}
}

func TestGenerateVideo(t *testing.T) {
	f := newServiceFixture(t)
	video := &fakeProvider{name: "motion"}
	f.service.video = video

	resp, err := f.service.GenerateVideo(context.Background(), &VideoRequest{
		UserID:          "user-1",
		StillPrompt:     "A bright studio shot of a sneaker",
		MotionDirective: "Slow orbit",
		AspectRatio:     "9:16",
		DurationSeconds: 6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := video.calls[0]
	if !strings.Contains(in.Prompt, "[MOTION]\nSlow orbit") {
		t.Errorf("video prompt missing motion directive\n%s", in.Prompt)
	}
	if in.DurationSeconds != 6 || in.AspectRatio != "9:16" {
		t.Errorf("input = %+v", in)
	}
	if resp.ArtifactURL == "" {
		t.Errorf("ArtifactURL missing")
	}
}

func TestGenerateVideoWithoutProvider(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.GenerateVideo(context.Background(), &VideoRequest{
		UserID: "user-1", StillPrompt: "still",
	})

	var pre *errs.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
}

// 목업 배치: 카피 모델 호출 없이 배치 경로 전체가 동작해야 한다
func TestGenerateBatchMockupFlow(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.GenerateBatch(context.Background(), &Request{
		UserID: "user-1", Flow: FlowMockup, SceneDescription: "on a wooden desk",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 5 {
		t.Errorf("succeeded = %d, want 5", result.Succeeded)
	}
	// 목업 카피는 로컬 합성: 카피 모델도 비전 분류도 호출되지 않는다
	if f.copies.calls != 0 {
		t.Errorf("copy model called %d times, want 0", f.copies.calls)
	}
	if f.vision.calls != 0 {
		t.Errorf("vision called %d times, want 0", f.vision.calls)
	}
	for i, in := range f.provider.calls {
		if !strings.Contains(in.Prompt, "[PRODUCT MOCKUP]") {
			t.Errorf("variant %d prompt not a mockup prompt\n%s", i, in.Prompt)
		}
	}
}
