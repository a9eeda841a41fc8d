package veo3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/retry"
	"adcanvas-server/modules/generate"
)

const ProviderName = "veo3"

// Invoker - Veo3 HTTP 호출 추상화. 테스트에서 가짜로 교체한다.
type Invoker interface {
	Invoke(ctx context.Context, payload any) ([]byte, error)
}

type httpInvoker struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPInvoker(endpoint, apiKey string) Invoker {
	return &httpInvoker{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (i *httpInvoker) Invoke(ctx context.Context, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", i.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("veo3 API error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Service - Veo3 비디오 생성 어댑터.
// 응답의 비디오 URL을 내려받아 아티팩트 스토어에 올린다.
type Service struct {
	invoker     Invoker
	storage     generate.ArtifactGateway
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       func(time.Duration) // 테스트에서 교체
}

func NewService(invoker Invoker, storage generate.ArtifactGateway, backoffBase time.Duration) *Service {
	log.Println("✅ [Veo3] Service initialized")
	return &Service{
		invoker:     invoker,
		storage:     storage,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}
}

func (s *Service) Name() string { return ProviderName }

// Generate - 비디오 생성. Prompt 는 이미 모션 지시어까지 합성된 상태로 들어온다.
func (s *Service) Generate(ctx context.Context, in *generate.ProviderInput) (*generate.GenerationResult, error) {
	payload := map[string]any{
		"prompt":       in.Prompt,
		"aspect_ratio": in.AspectRatio,
		"duration":     in.DurationSeconds,
	}
	if in.ReferenceImageURL != "" {
		payload["image_url"] = in.ReferenceImageURL
	}

	log.Printf("🎬 [Veo3] Generating video - duration: %ds, ratio: %s", in.DurationSeconds, in.AspectRatio)

	var (
		sourceURL   string
		videoData   []byte
		contentType string
	)

	policy := retry.Policy{
		MaxAttempts: in.Retries + 1,
		Backoff:     retry.Linear(s.backoffBase),
		Sleep:       s.sleep,
	}

	// 재시도 단위는 호출-정규화-다운로드 전체. 영속은 재시도하지 않는다.
	attempts, err := retry.Do(ctx, policy, func(ctx context.Context) error {
		raw, err := s.invoker.Invoke(ctx, payload)
		if err != nil {
			log.Printf("❌ [Veo3] API error: %v", err)
			return err
		}
		url, err := generate.ResolveSourceURL(ProviderName, raw)
		if err != nil {
			return err
		}
		data, ct, err := s.fetchArtifact(ctx, url)
		if err != nil {
			return err
		}
		sourceURL, videoData, contentType = url, data, ct
		return nil
	})
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderName, Attempts: attempts, Err: err}
	}

	log.Printf("✅ [Veo3] Video generated: %d bytes", len(videoData))

	path, err := s.storage.Put(ctx, videoData, contentType, in.OwnerID)
	if err != nil {
		return nil, err
	}

	return &generate.GenerationResult{
		ArtifactPath:      path,
		SourceProviderURL: sourceURL,
		ProviderName:      ProviderName,
	}, nil
}

func (s *Service) fetchArtifact(ctx context.Context, url string) ([]byte, string, error) {
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
		return nil, "", fmt.Errorf("artifact download failed: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return data, contentType, nil
}
