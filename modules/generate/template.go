package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adcanvas-server/modules/common/events"
)

// VisionModel - 단일 이미지 비전 분류 계약 (gemini.Client 가 구현)
type VisionModel interface {
	Classify(ctx context.Context, imageURL, instruction string) ([]byte, error)
}

// TemplateDetector - 참조 이미지가 알려진 밈/템플릿 구조인지 분류한다.
// 요청당 정확히 한 번 호출되며, 실패는 치명적이지 않다 ("no match" 처리).
type TemplateDetector struct {
	vision VisionModel
	sink   events.Sink
}

func NewTemplateDetector(vision VisionModel, sink events.Sink) *TemplateDetector {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &TemplateDetector{vision: vision, sink: sink}
}

// detectionResponse - 비전 모델 원시 응답
type detectionResponse struct {
	IsMeme       bool   `json:"isMeme"`
	TemplateName string `json:"templateName"`
	Description  string `json:"description"`
	Panels       []struct {
		Position      int    `json:"position"`
		Sentiment     string `json:"sentiment"`
		Role          string `json:"role"`
		SuggestedCopy string `json:"suggestedCopy"`
	} `json:"panels"`
}

// Detect - 템플릿 매칭 시도. 어떤 에러든 삼키고 nil("no match")을 반환한다.
// 배치에서는 첫 변형의 카피를 대표 샘플로 한 번만 호출하고 결과를 공유한다.
func (d *TemplateDetector) Detect(ctx context.Context, gc *GenerationContext, sample *AdCopy, requestID string) *TemplateMatch {
	d.sink.Emit(ctx, events.Started("template", requestID))

	raw, err := d.vision.Classify(ctx, gc.ReferenceImageURL, buildDetectionInstruction(gc, sample))
	if err != nil {
		d.sink.Emit(ctx, events.Failed("template", requestID, err.Error()))
		return nil
	}

	var resp detectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		d.sink.Emit(ctx, events.Failed("template", requestID, "malformed detection output"))
		return nil
	}

	if !resp.IsMeme || resp.TemplateName == "" || len(resp.Panels) == 0 {
		d.sink.Emit(ctx, events.Succeeded("template", requestID, map[string]any{"match": false}))
		return nil
	}

	match := &TemplateMatch{
		TemplateName: resp.TemplateName,
		Description:  resp.Description,
	}
	for _, p := range resp.Panels {
		// 패널 카피 8단어 제한을 로컬에서 재검증한다.
		// 제한을 넘는 출력은 신뢰하지 않고 매치 전체를 버린다.
		if wordCount(p.SuggestedCopy) > 8 || strings.TrimSpace(p.SuggestedCopy) == "" {
			d.sink.Emit(ctx, events.Failed("template", requestID, "panel copy exceeds word limit"))
			return nil
		}
		match.Panels = append(match.Panels, TemplatePanel{
			Position:      p.Position,
			Sentiment:     normalizeSentiment(p.Sentiment),
			Role:          p.Role,
			SuggestedCopy: strings.TrimSpace(p.SuggestedCopy),
		})
	}

	d.sink.Emit(ctx, events.Succeeded("template", requestID, map[string]any{
		"match":    true,
		"template": match.TemplateName,
		"panels":   len(match.Panels),
	}))
	return match
}

// buildDetectionInstruction - 비전 분류 지시 프롬프트
func buildDetectionInstruction(gc *GenerationContext, sample *AdCopy) string {
	var sb strings.Builder
	sb.WriteString("Decide whether this image matches a known multi-panel meme or template structure.\n")
	sb.WriteString("Respond with JSON: {\"isMeme\": bool, \"templateName\": string, \"description\": string, ")
	sb.WriteString("\"panels\": [{\"position\": int, \"sentiment\": \"negative|positive|neutral|escalating|contrast\", \"role\": string, \"suggestedCopy\": string}]}.\n\n")
	sb.WriteString("If it matches, write brand-specific copy for each panel, at most 8 words per panel.\n")
	sb.WriteString("Each panel's copy must fit its sentiment: a negative/rejection panel needs a real pain point, not filler.\n\n")
	sb.WriteString("[BRAND]\n")
	sb.WriteString(gc.Brand.Name)
	if gc.Brand.Description != "" {
		sb.WriteString(" — " + gc.Brand.Description)
	}
	sb.WriteString("\n\n[AD COPY SAMPLE]\n")
	fmt.Fprintf(&sb, "Hook: %s\nCaption: %s\nCTA: %s\n", sample.Hook, sample.Caption, sample.CTA)
	if gc.UserContext != "" {
		sb.WriteString("\n[SCENE]\n" + gc.UserContext + "\n")
	}
	sb.WriteString("\nIf the image is NOT a recognizable template, respond {\"isMeme\": false}.")
	return sb.String()
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func normalizeSentiment(s string) PanelSentiment {
	switch PanelSentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentNegative, SentimentPositive, SentimentEscalating, SentimentContrast:
		return PanelSentiment(strings.ToLower(strings.TrimSpace(s)))
	}
	return SentimentNeutral
}
