package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"adcanvas-server/modules/common/config"
	"adcanvas-server/modules/common/errs"
)

const webpQuality = 90.0

// Gateway - Supabase Storage 기반 아티팩트 저장소.
// 매 업로드마다 새로운 고유 경로를 만들기 때문에 쓰기 경합이 없다.
type Gateway struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

func NewGateway(cfg *config.Config) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		serviceKey: cfg.SupabaseServiceKey,
		bucket:     cfg.StorageBucket,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Put - 바이너리를 업로드하고 안정적인 경로를 반환한다.
// PNG 는 WebP(quality 90)로 변환해서 올린다.
func (g *Gateway) Put(ctx context.Context, data []byte, contentType, ownerID string) (string, error) {
	if contentType == "image/png" {
		converted, err := convertPNGToWebP(data, webpQuality)
		if err != nil {
			return "", &errs.PersistenceError{Op: "convert", Err: err}
		}
		data = converted
		contentType = "image/webp"
	}

	filePath := fmt.Sprintf("generated/%s/%s%s", ownerID, uuid.New().String(), extensionFor(contentType))

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", g.baseURL, g.bucket, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", &errs.PersistenceError{Op: "put", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &errs.PersistenceError{Op: "put", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", &errs.PersistenceError{
			Op:  "put",
			Err: fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	return filePath, nil
}

// Sign - 저장 경로에 대한 시간제한 접근 URL 발급
func (g *Gateway) Sign(ctx context.Context, filePath string, ttlSeconds int) (string, error) {
	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", g.baseURL, g.bucket, filePath)

	payload, _ := json.Marshal(map[string]int{"expiresIn": ttlSeconds})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signURL, bytes.NewReader(payload))
	if err != nil {
		return "", &errs.PersistenceError{Op: "sign", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &errs.PersistenceError{Op: "sign", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &errs.PersistenceError{
			Op:  "sign",
			Err: fmt.Errorf("sign failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", &errs.PersistenceError{Op: "sign", Err: err}
	}

	return g.baseURL + "/storage/v1" + signed.SignedURL, nil
}

// convertPNGToWebP - PNG 바이너리를 WebP 로 변환
func convertPNGToWebP(pngData []byte, quality float32) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	return buf.Bytes(), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
