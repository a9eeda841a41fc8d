package generate

import "context"

// ProviderInput - 모든 프로바이더가 공유하는 정규화된 생성 입력.
// ReferenceImageURL 이 비어 있으면 text-to-image/video 호출이다.
// 어댑터는 자신이 지원하지 않는 노브를 무시한다.
type ProviderInput struct {
	Prompt            string
	ReferenceImageURL string
	Quality           string
	AspectRatio       string
	// Temperature - 생성 다양성 (Gemini 계열만 사용)
	Temperature float64
	// Retries - 호출자가 정하는 재시도 횟수. 배치 항목은 0.
	Retries int
	// OwnerID - 아티팩트 경로 파생용
	OwnerID string
	// DurationSeconds - 비디오 전용
	DurationSeconds int
}

// Provider - 교체 가능한 생성 백엔드 계약.
// 각 어댑터는 자신의 요청 형태를 만들고, 이질적인 응답을 GenerationResult 로
// 정규화하고, 자체 재시도/백오프 정책을 소유한다.
type Provider interface {
	Name() string
	Generate(ctx context.Context, in *ProviderInput) (*GenerationResult, error)
}

// ArtifactGateway - 아티팩트 영속 계약 (storage.Gateway 가 구현)
type ArtifactGateway interface {
	Put(ctx context.Context, data []byte, contentType, ownerID string) (string, error)
	Sign(ctx context.Context, path string, ttlSeconds int) (string, error)
}
