package generate

import "time"

// Options - 파이프라인 고정 설정. 생성 시점에 주입되는 불변 값이다.
type Options struct {
	// CreativityTemperature - 창의성 레벨(1-4) → 프로바이더 temperature
	CreativityTemperature map[int]float64
	DefaultTemperature    float64

	// AngleNames - 배치에서 쓰는 다섯 가지 포지셔닝 앵글 이름
	AngleNames []string

	// BatchMinSuccess - 배치 부분 성공 최소 기준
	BatchMinSuccess int

	// 카피 생성 재시도: 고정 2초에서 2배씩
	CopyMaxAttempts int
	CopyBackoffBase time.Duration

	// 프로바이더 재시도 백오프: 3초 × 시도 횟수
	ProviderBackoffBase time.Duration
	// SingleRetries - 단건 경로의 프로바이더 재시도 횟수 (배치 항목은 0)
	SingleRetries int

	// DefaultProvider - 요청에 provider 가 없을 때 쓰는 어댑터 키
	DefaultProvider string

	// SignTTLSeconds - 응답에 실어주는 서명 URL 유효기간
	SignTTLSeconds int
}

// DefaultOptions - 기본 파이프라인 설정
func DefaultOptions() Options {
	return Options{
		CreativityTemperature: map[int]float64{
			1: 0.2,
			2: 0.6,
			3: 1.0,
			4: 1.4,
		},
		DefaultTemperature: 0.6,
		AngleNames: []string{
			"Problem-Solution",
			"Social Proof",
			"Urgency & Scarcity",
			"Aspirational Lifestyle",
			"Us vs Them",
		},
		BatchMinSuccess:     3,
		CopyMaxAttempts:     2,
		CopyBackoffBase:     2 * time.Second,
		ProviderBackoffBase: 3 * time.Second,
		SingleRetries:       1,
		DefaultProvider:     "nanobanana",
		SignTTLSeconds:      3600,
	}
}

// TemperatureFor - 창의성 레벨을 temperature 로 변환 (미지정/범위 밖은 기본값)
func (o Options) TemperatureFor(creativity int) float64 {
	if t, ok := o.CreativityTemperature[creativity]; ok {
		return t
	}
	return o.DefaultTemperature
}
