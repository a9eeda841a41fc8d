package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"adcanvas-server/modules/common/config"
)

// BrandProfile - 브랜드 프로필 레코드
type BrandProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Tagline        string    `json:"tagline"`
	Industry       string    `json:"industry"`
	Description    string    `json:"description"`
	VoiceTone      string    `json:"voice_tone"`
	TargetAudience string    `json:"target_audience"`
	Colors         []string  `json:"colors"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReferenceImage - 업로드된 참조 이미지 레코드
type ReferenceImage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Client - Supabase 기반 브랜드/참조 이미지 저장소
type Client struct {
	supabase *supabase.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	sb, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	log.Println("✅ Supabase client initialized")
	return &Client{supabase: sb}, nil
}

// GetBrand - 사용자의 브랜드 프로필 조회. 없으면 (nil, nil).
func (c *Client) GetBrand(_ context.Context, userID string) (*BrandProfile, error) {
	var brands []BrandProfile

	data, _, err := c.supabase.From("brand_profiles").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query brand_profiles: %w", err)
	}

	if err := json.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("failed to parse brand response: %w", err)
	}

	if len(brands) == 0 {
		return nil, nil
	}
	return &brands[0], nil
}

// GetReferenceImage - ID 와 소유자로 참조 이미지 조회. 없거나 소유자가 다르면 (nil, nil).
func (c *Client) GetReferenceImage(_ context.Context, id, userID string) (*ReferenceImage, error) {
	var images []ReferenceImage

	data, _, err := c.supabase.From("reference_images").
		Select("*", "exact", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_images: %w", err)
	}

	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("failed to parse reference image response: %w", err)
	}

	if len(images) == 0 {
		return nil, nil
	}
	return &images[0], nil
}

// GetMostRecentReferenceImage - 사용자의 가장 최근 업로드 이미지. 없으면 (nil, nil).
func (c *Client) GetMostRecentReferenceImage(_ context.Context, userID string) (*ReferenceImage, error) {
	var images []ReferenceImage

	data, _, err := c.supabase.From("reference_images").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_images: %w", err)
	}

	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("failed to parse reference image response: %w", err)
	}

	if len(images) == 0 {
		return nil, nil
	}
	return &images[0], nil
}
