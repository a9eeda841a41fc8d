package generate

import (
	"adcanvas-server/modules/common/database"
)

// Mode - 생성 모드. 프롬프트 형태와 프로바이더 호출 형태를 결정한다.
// 한 번 정해지면 해당 생성 시도 동안 바뀌지 않는다.
type Mode string

const (
	ModeReference             Mode = "reference"
	ModeReferenceWithTemplate Mode = "reference_template"
	ModeOriginal              Mode = "original"
	ModeProductMockup         Mode = "product_mockup"
)

// Flow - 호출자 의도 플래그
const (
	FlowAd     = "ad"
	FlowMockup = "mockup"
)

// Request - 단건/배치 생성 요청
type Request struct {
	UserID           string `json:"userId"`
	ReferenceImageID string `json:"referenceImageId,omitempty"`
	SceneDescription string `json:"sceneDescription,omitempty"`
	Flow             string `json:"flow"`
	Provider         string `json:"provider,omitempty"`
	Quality          string `json:"quality,omitempty"`
	AspectRatio      string `json:"aspectRatio,omitempty"`
	Creativity       int    `json:"creativity,omitempty"` // 1-4
	TargetPlatform   string `json:"targetPlatform,omitempty"`
}

// GenerationContext - 요청당 한 번 생성되는 불변 컨텍스트.
// 배치의 모든 동시 브랜치가 읽기 전용으로 공유한다.
type GenerationContext struct {
	ReferenceImageURL string
	Brand             *database.BrandProfile
	UserContext       string
	Mode              Mode
	Quality           string
	AspectRatio       string
	Temperature       float64
	UserID            string
	TargetPlatform    string
}

// AdCopy - 구조화된 광고 카피. estimatedPerformance 외 전 필드 필수.
type AdCopy struct {
	PositioningAngle     string `json:"positioningAngle"`
	AngleJustification   string `json:"angleJustification"`
	Hook                 string `json:"hook"`
	Caption              string `json:"caption"`
	CTA                  string `json:"cta"`
	BrandVoiceMatch      string `json:"brandVoiceMatch"`
	FrameworkApplied     string `json:"frameworkApplied"`
	TargetPlatform       string `json:"targetPlatform"`
	EstimatedPerformance string `json:"estimatedPerformance,omitempty"`
}

// PanelSentiment - 템플릿 패널의 감정 축
type PanelSentiment string

const (
	SentimentNegative   PanelSentiment = "negative"
	SentimentPositive   PanelSentiment = "positive"
	SentimentNeutral    PanelSentiment = "neutral"
	SentimentEscalating PanelSentiment = "escalating"
	SentimentContrast   PanelSentiment = "contrast"
)

// TemplatePanel - 밈 템플릿의 패널 하나
type TemplatePanel struct {
	Position      int            `json:"position"`
	Sentiment     PanelSentiment `json:"sentiment"`
	Role          string         `json:"role"`
	SuggestedCopy string         `json:"suggestedCopy"` // 8단어 이하
}

// TemplateMatch - 비전 분류 결과. 배치의 모든 브랜치가 읽기 전용으로 공유한다.
type TemplateMatch struct {
	TemplateName string          `json:"templateName"`
	Description  string          `json:"description"`
	Panels       []TemplatePanel `json:"panels"`
}

// GenerationResult - 프로바이더 종류와 무관한 정규화된 생성 결과
type GenerationResult struct {
	ArtifactPath      string `json:"artifactPath"`
	SourceProviderURL string `json:"sourceProviderUrl,omitempty"`
	ProviderName      string `json:"providerName"`
}

// BatchItemOutcome - 배치 항목 하나의 결과. Result/Error 중 정확히 하나만 채워진다.
type BatchItemOutcome struct {
	Copy   AdCopy            `json:"copy"`
	Result *GenerationResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchResult - 모든 항목이 확정된 뒤에만 만들어지며 이후 변경되지 않는다.
type BatchResult struct {
	Outcomes  []BatchItemOutcome `json:"outcomes"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// SingleResponse - generateSingle 응답
type SingleResponse struct {
	Copy        AdCopy           `json:"copy"`
	Artifact    GenerationResult `json:"artifact"`
	Mode        Mode             `json:"mode"`
	ArtifactURL string           `json:"artifactUrl,omitempty"`
}

// VideoRequest - 정지 이미지 프롬프트를 압축해 쓰는 단일 프로바이더 비디오 생성 요청
type VideoRequest struct {
	UserID            string `json:"userId"`
	StillPrompt       string `json:"stillPrompt"`
	MotionDirective   string `json:"motionDirective"`
	ReferenceImageURL string `json:"referenceImageUrl,omitempty"`
	AspectRatio       string `json:"aspectRatio,omitempty"`
	DurationSeconds   int    `json:"durationSeconds,omitempty"`
}

// VideoResponse - generateVideo 응답
type VideoResponse struct {
	Artifact    GenerationResult `json:"artifact"`
	ArtifactURL string           `json:"artifactUrl,omitempty"`
}
