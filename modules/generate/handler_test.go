package generate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func newTestRouter(f *serviceFixture) *mux.Router {
	r := mux.NewRouter()
	NewHandler(f.service).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRejectsInvalidFlow(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]string{"userId": "user-1", "flow": "banner"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerRejectsMissingUser(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]string{"flow": "ad"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerRejectsOutOfRangeCreativity(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]any{"userId": "user-1", "flow": "ad", "creativity": 9})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 브랜드 프로필 없음 → 422
func TestHandlerMapsPreconditionTo422(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]string{"userId": "stranger", "flow": "ad"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

// 모르는 참조 이미지 ID → 404
func TestHandlerMapsNotFoundTo404(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]string{
		"userId": "user-1", "flow": "ad", "referenceImageId": "missing",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerSingleSuccess(t *testing.T) {
	f := newServiceFixture(t)
	f.copies.responses = [][]byte{validCopyJSON(t, "Problem-Solution")}
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate", map[string]string{"userId": "user-1", "flow": "ad"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SingleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unparsable response: %v", err)
	}
	if resp.Copy.Hook == "" || resp.Artifact.ArtifactPath == "" {
		t.Errorf("incomplete response: %+v", resp)
	}
}

// 기준 미달 배치 → 502
func TestHandlerMapsThresholdTo502(t *testing.T) {
	f := newServiceFixture(t)
	angles := DefaultOptions().AngleNames
	f.copies.responses = [][]byte{batchJSON(t, angles)}
	f.provider.failWhen = []string{"Angle:"} // 전 항목 실패
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate/batch", map[string]string{"userId": "user-1", "flow": "ad"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHandlerRejectsOverlongScene(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	long := make([]byte, maxSceneDescriptionLen+1)
	for i := range long {
		long[i] = 'x'
	}
	rec := postJSON(t, router, "/api/generate", map[string]string{
		"userId": "user-1", "flow": "ad", "sceneDescription": string(long),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerVideoRequiresStillPrompt(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := postJSON(t, router, "/api/generate/video", map[string]string{"userId": "user-1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
