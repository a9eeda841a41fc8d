package generate

import (
	"context"
	"errors"
	"testing"
)

// fakeVisionModel - 준비된 원시 응답 또는 에러를 돌려준다
type fakeVisionModel struct {
	response []byte
	err      error
	calls    int
}

func (f *fakeVisionModel) Classify(_ context.Context, _, _ string) ([]byte, error) {
	f.calls++
	return f.response, f.err
}

func refGC() *GenerationContext {
	gc := adGC()
	gc.ReferenceImageURL = "https://cdn.example.com/ref.png"
	return gc
}

const drakeResponse = `{
	"isMeme": true,
	"templateName": "Drake Hotline Bling",
	"description": "Two-panel rejection/approval format",
	"panels": [
		{"position": 1, "sentiment": "negative", "role": "rejection", "suggestedCopy": "Doing invoices by hand"},
		{"position": 2, "sentiment": "positive", "role": "approval", "suggestedCopy": "Letting Acme handle it"}
	]
}`

func TestDetectValidMatch(t *testing.T) {
	vision := &fakeVisionModel{response: []byte(drakeResponse)}
	d := NewTemplateDetector(vision, nil)

	match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1")
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.TemplateName != "Drake Hotline Bling" {
		t.Errorf("TemplateName = %q", match.TemplateName)
	}
	if len(match.Panels) != 2 {
		t.Fatalf("got %d panels, want 2", len(match.Panels))
	}
	if match.Panels[0].Sentiment != SentimentNegative {
		t.Errorf("panel 1 sentiment = %s", match.Panels[0].Sentiment)
	}
}

// 감지 실패는 치명적이지 않다: 어떤 에러든 "no match"
func TestDetectErrorIsNoMatch(t *testing.T) {
	vision := &fakeVisionModel{err: errors.New("vision model unavailable")}
	d := NewTemplateDetector(vision, nil)

	if match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1"); match != nil {
		t.Errorf("expected nil match on error, got %+v", match)
	}
}

func TestDetectMalformedOutputIsNoMatch(t *testing.T) {
	vision := &fakeVisionModel{response: []byte(`this is not json`)}
	d := NewTemplateDetector(vision, nil)

	if match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1"); match != nil {
		t.Errorf("expected nil match on malformed output, got %+v", match)
	}
}

func TestDetectNotAMeme(t *testing.T) {
	vision := &fakeVisionModel{response: []byte(`{"isMeme": false}`)}
	d := NewTemplateDetector(vision, nil)

	if match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1"); match != nil {
		t.Errorf("expected nil match for isMeme=false, got %+v", match)
	}
}

// 패널 카피가 8단어를 넘으면 매치 전체를 버린다
func TestDetectOverlongPanelDropsMatch(t *testing.T) {
	vision := &fakeVisionModel{response: []byte(`{
		"isMeme": true,
		"templateName": "Drake Hotline Bling",
		"description": "two panels",
		"panels": [
			{"position": 1, "sentiment": "negative", "role": "rejection", "suggestedCopy": "one two three four five six seven eight nine"}
		]
	}`)}
	d := NewTemplateDetector(vision, nil)

	if match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1"); match != nil {
		t.Errorf("expected nil match for overlong panel copy, got %+v", match)
	}
}

func TestDetectUnknownSentimentDefaultsNeutral(t *testing.T) {
	vision := &fakeVisionModel{response: []byte(`{
		"isMeme": true,
		"templateName": "Expanding Brain",
		"description": "escalation format",
		"panels": [
			{"position": 1, "sentiment": "confused", "role": "stage", "suggestedCopy": "Manual spreadsheets"}
		]
	}`)}
	d := NewTemplateDetector(vision, nil)

	match := d.Detect(context.Background(), refGC(), sampleCopy(), "req-1")
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Panels[0].Sentiment != SentimentNeutral {
		t.Errorf("sentiment = %s, want neutral", match.Panels[0].Sentiment)
	}
}
