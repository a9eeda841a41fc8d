package veo3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adcanvas-server/modules/common/errs"
	"adcanvas-server/modules/generate"
)

type fakeInvoker struct {
	responses [][]byte
	errs      []error
	calls     int
	payloads  []any
}

func (f *fakeInvoker) Invoke(_ context.Context, payload any) ([]byte, error) {
	i := f.calls
	f.calls++
	f.payloads = append(f.payloads, payload)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("no response prepared")
}

type fakeStorage struct {
	contentType string
}

func (s *fakeStorage) Put(_ context.Context, _ []byte, contentType, ownerID string) (string, error) {
	s.contentType = contentType
	return "generated/" + ownerID + "/clip.mp4", nil
}

func (s *fakeStorage) Sign(_ context.Context, path string, _ int) (string, error) {
	return "https://signed.example.com/" + path, nil
}

func TestGenerateVideoSuccess(t *testing.T) {
	artifact := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	}))
	defer artifact.Close()

	invoker := &fakeInvoker{responses: [][]byte{
		[]byte(fmt.Sprintf(`{"videoURL": %q}`, artifact.URL+"/clip.mp4")),
	}}
	storage := &fakeStorage{}
	s := NewService(invoker, storage, 3*time.Second)
	s.sleep = func(time.Duration) {}

	result, err := s.Generate(context.Background(), &generate.ProviderInput{
		Prompt:            "a sneaker ad\n\n[MOTION]\nSlow orbit",
		ReferenceImageURL: "https://cdn.example.com/still.png",
		AspectRatio:       "16:9",
		DurationSeconds:   6,
		OwnerID:           "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ArtifactPath != "generated/user-1/clip.mp4" {
		t.Errorf("ArtifactPath = %q", result.ArtifactPath)
	}
	if result.ProviderName != ProviderName {
		t.Errorf("ProviderName = %q", result.ProviderName)
	}
	if storage.contentType != "video/mp4" {
		t.Errorf("contentType = %q", storage.contentType)
	}

	payload := invoker.payloads[0].(map[string]any)
	if payload["image_url"] != "https://cdn.example.com/still.png" {
		t.Errorf("payload = %+v", payload)
	}
	if payload["duration"] != 6 || payload["aspect_ratio"] != "16:9" {
		t.Errorf("payload = %+v", payload)
	}
}

// 다운로드 실패도 재시도 단위에 포함된다 (영속은 제외)
func TestGenerateVideoRetriesArtifactDownload(t *testing.T) {
	var hits int
	artifact := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	}))
	defer artifact.Close()

	resp := []byte(fmt.Sprintf(`{"videoURL": %q}`, artifact.URL+"/clip.mp4"))
	invoker := &fakeInvoker{responses: [][]byte{resp, resp}}
	s := NewService(invoker, &fakeStorage{}, 3*time.Second)
	var waits []time.Duration
	s.sleep = func(d time.Duration) { waits = append(waits, d) }

	result, err := s.Generate(context.Background(), &generate.ProviderInput{
		Prompt:  "still",
		Retries: 1,
		OwnerID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoker.calls != 2 || hits != 2 {
		t.Errorf("invoker calls=%d download hits=%d, want 2/2", invoker.calls, hits)
	}
	if len(waits) != 1 || waits[0] != 3*time.Second {
		t.Errorf("waits = %v, want [3s]", waits)
	}
	if result.ArtifactPath != "generated/user-1/clip.mp4" {
		t.Errorf("ArtifactPath = %q", result.ArtifactPath)
	}
}

func TestGenerateVideoRetryAccounting(t *testing.T) {
	invoker := &fakeInvoker{errs: []error{
		errors.New("veo3 unavailable"),
		errors.New("veo3 unavailable"),
	}}
	s := NewService(invoker, &fakeStorage{}, 3*time.Second)
	var waits []time.Duration
	s.sleep = func(d time.Duration) { waits = append(waits, d) }

	_, err := s.Generate(context.Background(), &generate.ProviderInput{
		Prompt:  "still",
		Retries: 1,
		OwnerID: "user-1",
	})

	var provErr *errs.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if provErr.Attempts != 2 || invoker.calls != 2 {
		t.Errorf("attempts=%d calls=%d, want 2/2", provErr.Attempts, invoker.calls)
	}
	if len(waits) != 1 || waits[0] != 3*time.Second {
		t.Errorf("waits = %v, want [3s]", waits)
	}
}
