package nanobanana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/genai"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/retry"
	"adcanvas-server/modules/generate"
)

const ProviderName = "nanobanana"

// Service - Gemini 이미지 생성 어댑터.
// InlineData 바이트를 직접 받아 아티팩트 스토어에 올린다.
type Service struct {
	genaiClient *genai.Client
	model       string
	storage     generate.ArtifactGateway
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       func(time.Duration) // 테스트에서 교체
}

func NewService(genaiClient *genai.Client, model string, storage generate.ArtifactGateway, backoffBase time.Duration) *Service {
	log.Println("✅ [Nanobanana] Service initialized")
	return &Service{
		genaiClient: genaiClient,
		model:       model,
		storage:     storage,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}
}

func (s *Service) Name() string { return ProviderName }

// Generate - 프롬프트(+참조 이미지)로 이미지를 생성하고 영속 경로를 돌려준다.
func (s *Service) Generate(ctx context.Context, in *generate.ProviderInput) (*generate.GenerationResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(in.Prompt),
	}

	// 참조 이미지가 있으면 바이트로 내려받아 parts 에 추가
	if in.ReferenceImageURL != "" {
		imageData, mimeType, err := s.fetchImage(ctx, in.ReferenceImageURL)
		if err != nil {
			return nil, &errs.ProviderError{Provider: ProviderName, Attempts: 0, Err: err}
		}
		log.Printf("📷 [Nanobanana] Adding reference image: %s, %d bytes", mimeType, len(imageData))
		parts = append(parts, genai.NewPartFromBytes(imageData, mimeType))
	}

	content := &genai.Content{Parts: parts}

	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: in.AspectRatio,
		},
	}
	if in.Temperature > 0 {
		t := float32(in.Temperature)
		cfg.Temperature = &t
	}

	var (
		imageData []byte
		mimeType  string
	)

	policy := retry.Policy{
		MaxAttempts: in.Retries + 1,
		Backoff:     retry.Linear(s.backoffBase),
		Sleep:       s.sleep,
	}

	attempts, err := retry.Do(ctx, policy, func(ctx context.Context) error {
		result, err := s.genaiClient.Models.GenerateContent(ctx, s.model, []*genai.Content{content}, cfg)
		if err != nil {
			log.Printf("❌ [Nanobanana] Gemini API error: %v", err)
			return err
		}

		data, mime := extractInlineImage(result)
		if data == nil {
			return errors.New("no image in Gemini response")
		}
		imageData, mimeType = data, mime
		return nil
	})
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderName, Attempts: attempts, Err: err}
	}

	log.Printf("✅ [Nanobanana] Image generated: %d bytes", len(imageData))

	path, err := s.storage.Put(ctx, imageData, mimeType, in.OwnerID)
	if err != nil {
		return nil, err
	}

	return &generate.GenerationResult{
		ArtifactPath: path,
		ProviderName: ProviderName,
	}, nil
}

// extractInlineImage - 응답의 첫 InlineData 이미지 바이트를 꺼낸다
func extractInlineImage(result *genai.GenerateContentResponse) ([]byte, string) {
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return part.InlineData.Data, mime
			}
		}
	}
	return nil, ""
}

func (s *Service) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("reference image fetch failed: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
