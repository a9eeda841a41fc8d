package seedream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/retry"
	"adcanvas-server/modules/generate"
)

const ProviderName = "seedream"

// Invoker - Runware HTTP 호출 추상화. 테스트에서 가짜로 교체한다.
type Invoker interface {
	Invoke(ctx context.Context, payload any) ([]byte, error)
}

type httpInvoker struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPInvoker(apiURL, apiKey string) Invoker {
	return &httpInvoker{
		apiURL: apiURL,
		apiKey: apiKey,
		// Seedream은 좀 더 긴 타임아웃
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
}

func (i *httpInvoker) Invoke(ctx context.Context, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", i.apiURL, bytes.NewReader(jsonBody))
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
		return nil, fmt.Errorf("runware API error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Service - Seedream(Runware) 이미지 생성 어댑터.
// 응답의 이미지 URL을 내려받아 아티팩트 스토어에 올린다.
type Service struct {
	invoker     Invoker
	storage     generate.ArtifactGateway
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       func(time.Duration) // 테스트에서 교체
}

func NewService(invoker Invoker, storage generate.ArtifactGateway, backoffBase time.Duration) *Service {
	log.Println("✅ [Seedream] Service initialized")
	return &Service{
		invoker:     invoker,
		storage:     storage,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}
}

func (s *Service) Name() string { return ProviderName }

// Generate - 프롬프트(+참조 이미지 URL)로 이미지를 생성하고 영속 경로를 돌려준다.
func (s *Service) Generate(ctx context.Context, in *generate.ProviderInput) (*generate.GenerationResult, error) {
	width, height := dimensionsFor(in.AspectRatio)

	runwareReq := RunwareRequest{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: in.Prompt,
		Model:          SeedreamModelID,
		Width:          width,
		Height:         height,
		NumberResults:  1,
		OutputFormat:   "PNG",
	}
	if in.ReferenceImageURL != "" {
		runwareReq.ReferenceImages = []string{in.ReferenceImageURL}
	}

	log.Printf("🎨 [Seedream] Generating image - size: %dx%d, ratio: %s", width, height, in.AspectRatio)

	var (
		sourceURL   string
		imageData   []byte
		contentType string
	)

	policy := retry.Policy{
		MaxAttempts: in.Retries + 1,
		Backoff:     retry.Linear(s.backoffBase),
		Sleep:       s.sleep,
	}

	// 재시도 단위는 호출-정규화-다운로드 전체. 영속은 재시도하지 않는다.
	attempts, err := retry.Do(ctx, policy, func(ctx context.Context) error {
		raw, err := s.invoker.Invoke(ctx, []RunwareRequest{runwareReq})
		if err != nil {
			log.Printf("❌ [Seedream] Runware API error: %v", err)
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
		sourceURL, imageData, contentType = url, data, ct
		return nil
	})
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderName, Attempts: attempts, Err: err}
	}

	log.Printf("✅ [Seedream] Image generated: %d bytes", len(imageData))

	path, err := s.storage.Put(ctx, imageData, contentType, in.OwnerID)
	if err != nil {
		return nil, err
	}

	return &generate.GenerationResult{
		ArtifactPath:      path,
		SourceProviderURL: sourceURL,
		ProviderName:      ProviderName,
	}, nil
}

// dimensionsFor - 종횡비 → Runware 픽셀 크기 (Seedream은 고해상도 지원)
func dimensionsFor(aspectRatio string) (int, int) {
	switch aspectRatio {
	case "16:9":
		return 2048, 1152
	case "9:16":
		return 1152, 2048
	case "4:3":
		return 2048, 1536
	case "3:4":
		return 1536, 2048
	case "4:5":
		return 1638, 2048
	default:
		return 2048, 2048
	}
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
		contentType = "image/png"
	}
	return data, contentType, nil
}
