package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Client - Gemini 래퍼. 카피 모델(구조화 JSON 출력)과 비전 분류를 담당한다.
// genai 클라이언트는 생성자로 주입된다.
type Client struct {
	genaiClient *genai.Client
	copyModel   string
	visionModel string
	httpClient  *http.Client
}

func NewClient(genaiClient *genai.Client, copyModel, visionModel string) *Client {
	return &Client{
		genaiClient: genaiClient,
		copyModel:   copyModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete - JSON 모드로 카피 모델 호출. responseSchema 에 맞는 JSON 바이트를 반환.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, temperature float64) ([]byte, error) {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
		Temperature:       &temp,
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	result, err := c.genaiClient.Models.GenerateContent(
		ctx,
		c.copyModel,
		[]*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	text := collectText(result)
	if text == "" {
		return nil, fmt.Errorf("no text data in response")
	}
	return []byte(text), nil
}

// Classify - 이미지 한 장을 비전 모델에 보내 JSON 분류 결과를 받는다.
func (c *Client) Classify(ctx context.Context, imageURL, instruction string) ([]byte, error) {
	imageData, mimeType, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	content := &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(instruction),
		},
	}

	result, err := c.genaiClient.Models.GenerateContent(
		ctx,
		c.visionModel,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini vision call failed: %w", err)
	}

	text := collectText(result)
	if text == "" {
		return nil, fmt.Errorf("no text data in response")
	}
	return []byte(text), nil
}

// collectText - 응답 후보들에서 텍스트 파트를 이어 붙인다
func collectText(result *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
