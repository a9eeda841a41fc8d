package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"adcanvas-server/modules/common/config"
	"adcanvas-server/modules/common/database"
	"adcanvas-server/modules/common/events"
	"adcanvas-server/modules/common/gemini"
	"adcanvas-server/modules/common/hub"
	"adcanvas-server/modules/common/redisconn"
	"adcanvas-server/modules/common/storage"
	"adcanvas-server/modules/generate"
	"adcanvas-server/modules/submodule/nanobanana"
	"adcanvas-server/modules/submodule/seedream"
	"adcanvas-server/modules/veo3"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "adcanvas-generation",
	})
}

func main() {
	ctx := context.Background()

	// 환경변수 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 이벤트 싱크 구성: 로그는 항상, Redis 는 연결되면
	sinks := []events.Sink{events.NewLogSink(logger)}

	rdb := redisconn.Connect(cfg)
	if rdb != nil {
		sinks = append(sinks, events.NewRedisSink(rdb, cfg.EventsChannel, logger))
	}
	sink := events.Multi(sinks...)

	// WebSocket 허브: Redis 이벤트 채널을 브라우저로 중계
	wsHub := hub.New()
	if rdb != nil {
		go wsHub.SubscribeRedis(ctx, rdb, cfg.EventsChannel)
	}

	// Genai 클라이언트 초기화 (카피/비전/이미지 공용)
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create Genai client: %v", err)
	}

	geminiClient := gemini.NewClient(genaiClient, cfg.GeminiCopyModel, cfg.GeminiVisionModel)

	db, err := database.NewClient(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create Supabase client: %v", err)
	}

	store := storage.NewGateway(cfg)

	opts := generate.DefaultOptions()

	// 프로바이더 구성
	providers := map[string]generate.Provider{
		nanobanana.ProviderName: nanobanana.NewService(genaiClient, cfg.GeminiImageModel, store, opts.ProviderBackoffBase),
	}
	if cfg.RunwareAPIKey != "" {
		providers[seedream.ProviderName] = seedream.NewService(
			seedream.NewHTTPInvoker(cfg.RunwareAPIURL, cfg.RunwareAPIKey), store, opts.ProviderBackoffBase)
	} else {
		log.Println("⚠️  RUNWARE_API_KEY not configured, seedream provider disabled")
	}

	var videoProvider generate.Provider
	if cfg.Veo3APIEndpoint != "" {
		videoProvider = veo3.NewService(
			veo3.NewHTTPInvoker(cfg.Veo3APIEndpoint, cfg.Veo3APIKey), store, opts.ProviderBackoffBase)
	} else {
		log.Println("⚠️  VEO3_API_ENDPOINT not configured, video generation disabled")
	}

	// 파이프라인 조립
	resolver := generate.NewResolver(db, opts)
	copygen := generate.NewCopyGenerator(geminiClient, opts, sink)
	detector := generate.NewTemplateDetector(geminiClient, sink)
	service := generate.NewService(resolver, copygen, detector, providers, videoProvider, store, sink, opts)
	handler := generate.NewHandler(service)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", wsHub.HandleWS)
	handler.RegisterRoutes(r)

	log.Printf("🚀 AdCanvas Generation Server starting on port %s", cfg.Port)
	log.Printf("📡 Event stream: ws://localhost:%s/ws", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
