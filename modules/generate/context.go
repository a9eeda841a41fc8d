package generate

import (
	"context"

	"adcanvas-server/modules/common/database"
	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/fallback"
)

// BrandStore - 브랜드/참조 이미지 저장소 계약 (database.Client 가 구현)
type BrandStore interface {
	GetBrand(ctx context.Context, userID string) (*database.BrandProfile, error)
	GetReferenceImage(ctx context.Context, id, userID string) (*database.ReferenceImage, error)
	GetMostRecentReferenceImage(ctx context.Context, userID string) (*database.ReferenceImage, error)
}

// Resolver - 요청으로부터 GenerationContext 를 한 번 만든다.
type Resolver struct {
	store BrandStore
	opts  Options
}

func NewResolver(store BrandStore, opts Options) *Resolver {
	return &Resolver{store: store, opts: opts}
}

// Resolve - 참조 이미지와 브랜드를 해석하고 모드를 결정한다.
// 브랜드 프로필은 카피 생성의 하드 전제조건이다.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*GenerationContext, error) {
	brand, err := r.store.GetBrand(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, &errs.PreconditionError{Reason: "brand profile required"}
	}

	var refURL string
	if req.ReferenceImageID != "" {
		// 명시적 선택: 소유자 불일치 포함 미발견은 실패
		img, err := r.store.GetReferenceImage(ctx, req.ReferenceImageID, req.UserID)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, &errs.NotFoundError{Resource: "reference image", ID: req.ReferenceImageID}
		}
		refURL = img.URL
	} else if req.Flow == FlowAd {
		// 광고 플로우만 최근 업로드로 폴백. 목업은 참조 없이 진행한다.
		img, err := r.store.GetMostRecentReferenceImage(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if img != nil {
			refURL = img.URL
		}
	}

	mode := ModeOriginal
	switch {
	case req.Flow == FlowMockup:
		mode = ModeProductMockup
	case refURL != "":
		// 템플릿 탐지 후 ReferenceWithTemplate 로 승격될 수 있다
		mode = ModeReference
	}

	return &GenerationContext{
		ReferenceImageURL: refURL,
		Brand:             brand,
		UserContext:       req.SceneDescription,
		Mode:              mode,
		Quality:           fallback.Quality(req.Quality),
		AspectRatio:       fallback.AspectRatio(req.AspectRatio),
		Temperature:       r.opts.TemperatureFor(req.Creativity),
		UserID:            req.UserID,
		TargetPlatform:    fallback.StringOr(req.TargetPlatform, "instagram"),
	}, nil
}
