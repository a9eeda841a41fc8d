package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/events"
	"adcanvas-server/modules/common/retry"
)

// CopyModel - 구조화 JSON 출력을 지원하는 카피 모델 계약 (gemini.Client 가 구현)
type CopyModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, temperature float64) ([]byte, error)
}

// CopyGenerator - AdCopy 생성기. 단건은 레코드 하나, 배치는 한 번의 호출로 N개.
type CopyGenerator struct {
	model CopyModel
	opts  Options
	sink  events.Sink
	sleep func(time.Duration)
}

func NewCopyGenerator(model CopyModel, opts Options, sink events.Sink) *CopyGenerator {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &CopyGenerator{model: model, opts: opts, sink: sink}
}

// GenerateSingle - AdCopy 한 건 생성.
// 목업 모드는 모델 호출 없이 브랜드명과 씬 텍스트로 합성한다.
func (g *CopyGenerator) GenerateSingle(ctx context.Context, gc *GenerationContext, requestID string) (*AdCopy, error) {
	if gc.Mode == ModeProductMockup {
		copy := synthesizeMockupCopy(gc)
		return copy, nil
	}

	g.sink.Emit(ctx, events.Started("copy", requestID))

	var result *AdCopy
	attempts, err := retry.Do(ctx, g.retryPolicy(), func(ctx context.Context) error {
		raw, err := g.model.Complete(ctx, g.systemPrompt(gc), g.singleUserPrompt(gc), adCopySchema(), gc.Temperature)
		if err != nil {
			return err
		}
		parsed, err := parseAdCopy(raw)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		g.sink.Emit(ctx, events.Failed("copy", requestID, err.Error()))
		return nil, &errs.CopyGenerationError{Attempts: attempts, Err: err}
	}

	g.sink.Emit(ctx, events.Succeeded("copy", requestID, map[string]any{"angle": result.PositioningAngle}))
	return result, nil
}

// GenerateBatch - 앵글당 한 건씩, 정확히 N개의 AdCopy 를 한 번의 호출로 생성한다.
// N번의 왕복을 피하기 위한 설계이며, 부분 성공은 허용하지 않는다.
func (g *CopyGenerator) GenerateBatch(ctx context.Context, gc *GenerationContext, angles []string, requestID string) ([]AdCopy, error) {
	// 목업 모드는 단건과 마찬가지로 모델을 호출하지 않는다.
	// 슬롯마다 요청된 앵글 이름만 달리한 결정적 카피를 합성한다.
	if gc.Mode == ModeProductMockup {
		copies := make([]AdCopy, len(angles))
		for i, name := range angles {
			c := synthesizeMockupCopy(gc)
			c.PositioningAngle = name
			copies[i] = *c
		}
		return copies, nil
	}

	g.sink.Emit(ctx, events.Started("copy.batch", requestID))

	var result []AdCopy
	attempts, err := retry.Do(ctx, g.retryPolicy(), func(ctx context.Context) error {
		raw, err := g.model.Complete(ctx, g.systemPrompt(gc), g.batchUserPrompt(gc, angles), adCopyBatchSchema(len(angles)), gc.Temperature)
		if err != nil {
			return err
		}
		parsed, err := parseAdCopyBatch(raw, angles)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		g.sink.Emit(ctx, events.Failed("copy.batch", requestID, err.Error()))
		return nil, &errs.CopyGenerationError{Attempts: attempts, Err: err}
	}

	g.sink.Emit(ctx, events.Succeeded("copy.batch", requestID, map[string]any{"count": len(result)}))
	return result, nil
}

func (g *CopyGenerator) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: g.opts.CopyMaxAttempts,
		Backoff:     retry.FixedDoubling(g.opts.CopyBackoffBase),
		Sleep:       g.sleep,
	}
}

// systemPrompt - 브랜드 사실과 앵글 전략 라이브러리를 담은 시스템 프롬프트
func (g *CopyGenerator) systemPrompt(gc *GenerationContext) string {
	var sb strings.Builder
	sb.WriteString("You are a senior direct-response copywriter for social media ads.\n\n")
	sb.WriteString("[BRAND]\n")
	sb.WriteString("Name: " + gc.Brand.Name + "\n")
	if gc.Brand.Tagline != "" {
		sb.WriteString("Tagline: " + gc.Brand.Tagline + "\n")
	}
	if gc.Brand.Industry != "" {
		sb.WriteString("Industry: " + gc.Brand.Industry + "\n")
	}
	if gc.Brand.Description != "" {
		sb.WriteString("About: " + gc.Brand.Description + "\n")
	}
	if gc.Brand.VoiceTone != "" {
		sb.WriteString("Voice: " + gc.Brand.VoiceTone + "\n")
	}
	if gc.Brand.TargetAudience != "" {
		sb.WriteString("Audience: " + gc.Brand.TargetAudience + "\n")
	}
	sb.WriteString("\n[POSITIONING ANGLE LIBRARY]\n")
	for _, name := range g.opts.AngleNames {
		sb.WriteString("- " + name + "\n")
	}
	sb.WriteString("\nAlways write in the brand voice. Output must match the JSON schema exactly.")
	return sb.String()
}

func (g *CopyGenerator) singleUserPrompt(gc *GenerationContext) string {
	var sb strings.Builder
	sb.WriteString("Write one ad copy record for a " + gc.TargetPlatform + " post. ")
	sb.WriteString("Pick the single most effective positioning angle from the library and justify the choice.")
	if gc.UserContext != "" {
		sb.WriteString("\n\n[OFFER / SCENE]\n" + gc.UserContext)
	}
	return sb.String()
}

func (g *CopyGenerator) batchUserPrompt(gc *GenerationContext, angles []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write exactly %d ad copy records for %s posts, one per positioning angle, in this order:\n", len(angles), gc.TargetPlatform)
	for i, name := range angles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	sb.WriteString("\nEach record's positioningAngle must be the angle name verbatim.")
	if gc.UserContext != "" {
		sb.WriteString("\n\n[OFFER / SCENE]\n" + gc.UserContext)
	}
	return sb.String()
}

// synthesizeMockupCopy - 목업 플로우 전용 결정적 카피 (모델 호출 없음)
func synthesizeMockupCopy(gc *GenerationContext) *AdCopy {
	scene := strings.TrimSpace(gc.UserContext)
	if scene == "" {
		scene = "a clean studio scene"
	}
	return &AdCopy{
		PositioningAngle:   "Product Showcase",
		AngleJustification: "Mockup flow renders the product itself; no persuasion angle needed.",
		Hook:               gc.Brand.Name + " — " + scene,
		Caption:            fmt.Sprintf("%s, shown in %s.", gc.Brand.Name, scene),
		CTA:                "See it in action",
		BrandVoiceMatch:    "visual-first",
		FrameworkApplied:   "product-mockup",
		TargetPlatform:     gc.TargetPlatform,
	}
}

// parseAdCopy - 원시 모델 출력을 엄격 검증한다. 누락 필드는 조용히 보정하지 않는다.
func parseAdCopy(raw []byte) (*AdCopy, error) {
	var copy AdCopy
	if err := json.Unmarshal(raw, &copy); err != nil {
		return nil, &errs.SchemaValidationError{Detail: fmt.Sprintf("unparsable copy output: %v", err)}
	}
	if err := validateAdCopy(&copy); err != nil {
		return nil, err
	}
	return &copy, nil
}

func parseAdCopyBatch(raw []byte, angles []string) ([]AdCopy, error) {
	var copies []AdCopy
	if err := json.Unmarshal(raw, &copies); err != nil {
		return nil, &errs.SchemaValidationError{Detail: fmt.Sprintf("unparsable batch output: %v", err)}
	}
	if len(copies) != len(angles) {
		return nil, &errs.SchemaValidationError{
			Detail: fmt.Sprintf("expected %d copy records, got %d", len(angles), len(copies)),
		}
	}
	seen := make(map[string]bool, len(angles))
	for i := range copies {
		if err := validateAdCopy(&copies[i]); err != nil {
			return nil, err
		}
		seen[copies[i].PositioningAngle] = true
	}
	for _, name := range angles {
		if !seen[name] {
			return nil, &errs.SchemaValidationError{Detail: "missing copy for angle: " + name}
		}
	}
	return copies, nil
}

func validateAdCopy(c *AdCopy) error {
	required := map[string]string{
		"positioningAngle":   c.PositioningAngle,
		"angleJustification": c.AngleJustification,
		"hook":               c.Hook,
		"caption":            c.Caption,
		"cta":                c.CTA,
		"brandVoiceMatch":    c.BrandVoiceMatch,
		"frameworkApplied":   c.FrameworkApplied,
		"targetPlatform":     c.TargetPlatform,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return &errs.SchemaValidationError{Detail: "missing required field: " + field}
		}
	}
	return nil
}

// adCopySchema - AdCopy 응답 스키마 (estimatedPerformance 만 선택)
func adCopySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"positioningAngle":     {Type: genai.TypeString},
			"angleJustification":   {Type: genai.TypeString},
			"hook":                 {Type: genai.TypeString},
			"caption":              {Type: genai.TypeString},
			"cta":                  {Type: genai.TypeString},
			"brandVoiceMatch":      {Type: genai.TypeString},
			"frameworkApplied":     {Type: genai.TypeString},
			"targetPlatform":       {Type: genai.TypeString},
			"estimatedPerformance": {Type: genai.TypeString},
		},
		Required: []string{
			"positioningAngle", "angleJustification", "hook", "caption",
			"cta", "brandVoiceMatch", "frameworkApplied", "targetPlatform",
		},
	}
}

func adCopyBatchSchema(n int) *genai.Schema {
	count := int64(n)
	return &genai.Schema{
		Type:     genai.TypeArray,
		Items:    adCopySchema(),
		MinItems: &count,
		MaxItems: &count,
	}
}
