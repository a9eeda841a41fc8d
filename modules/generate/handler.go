package generate

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/common/fallback"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우터에 생성 엔드포인트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/generate", h.GenerateSingle).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/generate/batch", h.GenerateBatch).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/generate/video", h.GenerateVideo).Methods("POST", "OPTIONS")
	log.Println("✅ Generate routes registered: /api/generate, /api/generate/batch, /api/generate/video")
}

// GenerateSingle - 단건 생성 (카피 1벌 + 이미지 1장)
func (h *Handler) GenerateSingle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// OPTIONS 요청 처리 (CORS preflight)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if !validateRequest(w, &req) {
		return
	}

	log.Printf("🎨 Single generation: user=%s flow=%s provider=%s", req.UserID, req.Flow, req.Provider)

	resp, err := h.service.GenerateSingle(r.Context(), &req)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	json.NewEncoder(w).Encode(resp)
}

type batchRequest struct {
	Request
	Angles []string `json:"angles,omitempty"`
}

// GenerateBatch - 앵글별 변형 동시 생성 (부분 성공 허용)
func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if !validateRequest(w, &req.Request) {
		return
	}

	log.Printf("🎨 Batch generation: user=%s flow=%s angles=%d", req.UserID, req.Flow, len(req.Angles))

	resp, err := h.service.GenerateBatch(r.Context(), &req.Request, req.Angles)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	json.NewEncoder(w).Encode(resp)
}

// GenerateVideo - 정지 프롬프트 + 모션 지시어로 비디오 생성
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.UserID == "" || req.StillPrompt == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: userId, stillPrompt")
		return
	}
	req.AspectRatio = fallback.AspectRatio(req.AspectRatio)
	if req.DurationSeconds == 0 {
		req.DurationSeconds = 5
	}
	req.DurationSeconds = fallback.Clamp(req.DurationSeconds, 2, 10)

	log.Printf("🎬 Video generation: user=%s duration=%ds", req.UserID, req.DurationSeconds)

	resp, err := h.service.GenerateVideo(r.Context(), &req)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	json.NewEncoder(w).Encode(resp)
}

// validateRequest - 공통 입력 검증 + 기본값 채움. 실패 시 응답까지 쓰고 false.
func validateRequest(w http.ResponseWriter, req *Request) bool {
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: userId")
		return false
	}
	if req.Flow != FlowAd && req.Flow != FlowMockup {
		writeError(w, http.StatusBadRequest, "flow must be 'ad' or 'mockup'")
		return false
	}
	if req.Creativity != 0 && (req.Creativity < 1 || req.Creativity > 4) {
		writeError(w, http.StatusBadRequest, "creativity must be between 1 and 4")
		return false
	}
	if len(req.SceneDescription) > maxSceneDescriptionLen {
		writeError(w, http.StatusBadRequest, "sceneDescription too long")
		return false
	}
	return true
}

// maxSceneDescriptionLen - 씬 설명 길이 상한 (프롬프트 폭주 방지)
const maxSceneDescriptionLen = 2000

// writePipelineError - 에러 분류 → HTTP 상태 매핑
func writePipelineError(w http.ResponseWriter, err error) {
	var (
		precondition *errs.PreconditionError
		notFound     *errs.NotFoundError
		schema       *errs.SchemaValidationError
		copyErr      *errs.CopyGenerationError
		provider     *errs.ProviderError
		threshold    *errs.ThresholdExceededError
		persistence  *errs.PersistenceError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &precondition):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &copyErr), errors.As(err, &schema),
		errors.As(err, &provider), errors.As(err, &threshold), errors.As(err, &persistence):
		status = http.StatusBadGateway
	}

	log.Printf("❌ Pipeline error (%d): %v", status, err)
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
