package generate

import (
	"fmt"
	"strings"

	"adcanvas-server/modules/common/database"
)

// ComposePrompt - (AdCopy, Brand, Mode, TemplateMatch?) → 프롬프트 문자열.
// 순수 함수: I/O 없음, 같은 입력이면 바이트 단위로 같은 출력.
func ComposePrompt(copy *AdCopy, brand *database.BrandProfile, mode Mode, match *TemplateMatch) string {
	var sb strings.Builder

	switch mode {
	case ModeReferenceWithTemplate:
		composeTemplatePrompt(&sb, copy, match)
	case ModeReference:
		composeReferencePrompt(&sb, copy)
	case ModeProductMockup:
		composeMockupPrompt(&sb, copy)
	default:
		composeOriginalPrompt(&sb, copy, brand)
	}

	appendBrandColorHint(&sb, brand)

	return sb.String()
}

// composeTemplatePrompt - 알려진 템플릿 구조를 그대로 유지하며 패널 텍스트만 교체
func composeTemplatePrompt(sb *strings.Builder, copy *AdCopy, match *TemplateMatch) {
	sb.WriteString("[TEMPLATE RECREATION - KEEP THE ORIGINAL STRUCTURE]\n")
	fmt.Fprintf(sb, "The reference image is the \"%s\" template: %s\n\n", match.TemplateName, match.Description)

	sb.WriteString("Recreate this exact template with the following text per panel:\n")
	for _, p := range match.Panels {
		fmt.Fprintf(sb, "Panel %d (%s, %s): replace the text with exactly: \"%s\"\n",
			p.Position, p.Role, p.Sentiment, p.SuggestedCopy)
	}

	sb.WriteString("\n[REQUIRED]\n")
	sb.WriteString("✓ Preserve the template's original layout, characters, expressions and panel borders\n")
	sb.WriteString("✓ Only the text inside each panel changes\n")
	sb.WriteString("✓ Keep the same art style as the reference\n\n")
	sb.WriteString("[FORBIDDEN]\n")
	sb.WriteString("❌ Do NOT substitute a generic layout for the template\n")
	sb.WriteString("❌ Do NOT merge, drop or reorder panels\n")
	fmt.Fprintf(sb, "\nCaption for context (not rendered in the image): %s\n", copy.Caption)
}

// composeReferencePrompt - 템플릿이 아닌 참조: 포맷 유지, 텍스트만 교체
func composeReferencePrompt(sb *strings.Builder, copy *AdCopy) {
	sb.WriteString("[REFERENCE REMIX]\n")
	sb.WriteString("Keep the exact same layout, composition and visual style as the reference image.\n")
	sb.WriteString("Swap ONLY the headline and call-to-action text:\n\n")
	fmt.Fprintf(sb, "Headline: \"%s\"\n", copy.Hook)
	fmt.Fprintf(sb, "Call to action: \"%s\"\n\n", copy.CTA)
	sb.WriteString("Do not change the background, subjects, colors or framing of the reference.\n")
}

// composeOriginalPrompt - 참조가 없을 때의 구조화된 크리에이티브 브리프
func composeOriginalPrompt(sb *strings.Builder, copy *AdCopy, brand *database.BrandProfile) {
	sb.WriteString("[CREATIVE BRIEF - ORIGINAL SOCIAL AD]\n\n")

	sb.WriteString("[BRAND]\n")
	fmt.Fprintf(sb, "Name: %s\n", brand.Name)
	if brand.Tagline != "" {
		fmt.Fprintf(sb, "Tagline: %s\n", brand.Tagline)
	}
	if brand.Industry != "" {
		fmt.Fprintf(sb, "Industry: %s\n", brand.Industry)
	}
	if brand.VoiceTone != "" {
		fmt.Fprintf(sb, "Voice: %s\n", brand.VoiceTone)
	}

	sb.WriteString("\n[COPY TO RENDER]\n")
	fmt.Fprintf(sb, "Headline: \"%s\"\n", copy.Hook)
	fmt.Fprintf(sb, "Call to action: \"%s\"\n", copy.CTA)
	fmt.Fprintf(sb, "Angle: %s (%s)\n", copy.PositioningAngle, copy.FrameworkApplied)

	sb.WriteString("\n[LAYOUT]\n")
	sb.WriteString("✓ Headline dominant in the upper third, CTA as a button-like element near the bottom\n")
	sb.WriteString("✓ One clear focal subject, generous negative space for text\n")
	fmt.Fprintf(sb, "✓ Designed for %s feed\n", copy.TargetPlatform)

	sb.WriteString("\n[STYLE]\n")
	sb.WriteString("✓ Professional advertising photography, crisp lighting, high contrast\n")
	sb.WriteString("✓ Modern sans-serif typography, text must be legible and spelled exactly as given\n")
	sb.WriteString("❌ No watermark, no lorem ipsum, no extra text beyond the copy above\n")
}

// composeMockupPrompt - 참조 이미지의 제품을 그대로 씬에 배치
func composeMockupPrompt(sb *strings.Builder, copy *AdCopy) {
	sb.WriteString("[PRODUCT MOCKUP]\n")
	fmt.Fprintf(sb, "Place the EXACT product from the reference image into this scene: %s\n\n", copy.Hook)
	sb.WriteString("[HARD CONSTRAINTS]\n")
	sb.WriteString("✓ Photorealistic, natural lighting and shadows matching the scene\n")
	sb.WriteString("✓ The product must be the clear focal point\n")
	sb.WriteString("❌ Do not alter the product: same shape, texture, label and colors\n")
	sb.WriteString("❌ No text overlays of any kind\n")
	sb.WriteString("❌ No duplicated or floating products\n")
}

// appendBrandColorHint - 브랜드 컬러가 하나 이상 선언돼 있으면 힌트 추가
func appendBrandColorHint(sb *strings.Builder, brand *database.BrandProfile) {
	if brand == nil || len(brand.Colors) == 0 {
		return
	}
	sb.WriteString("\n[BRAND COLORS]\n")
	fmt.Fprintf(sb, "Lean the palette toward the brand colors: %s\n", strings.Join(brand.Colors, ", "))
}

// videoPromptMaxLen - 비디오 프로바이더에 넘기는 압축 프롬프트 길이 상한
const videoPromptMaxLen = 600

// ComposeVideoPrompt - 정지 이미지 생성 프롬프트를 압축하고 모션 지시를 덧붙인다.
// 전체 컴포저를 다시 돌리지 않는 의도적 지름길.
func ComposeVideoPrompt(stillPrompt, motionDirective string) string {
	condensed := condense(stillPrompt, videoPromptMaxLen)

	var sb strings.Builder
	sb.WriteString(condensed)
	sb.WriteString("\n\n[MOTION]\n")
	if strings.TrimSpace(motionDirective) != "" {
		sb.WriteString(strings.TrimSpace(motionDirective))
	} else {
		sb.WriteString("Subtle, slow camera push-in. Keep all text and the subject stable.")
	}
	return sb.String()
}

// condense - 공백을 접고 단어 경계에서 자른다
func condense(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	cut := strings.LastIndex(s[:maxLen], " ")
	if cut <= 0 {
		cut = maxLen
	}
	return s[:cut]
}
