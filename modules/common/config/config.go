package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
// Load()가 반환한 값을 각 컴포넌트 생성자에 명시적으로 전달한다 (전역 접근 없음)
type Config struct {
	// Server
	Port string

	// Redis (이벤트 pub/sub 채널용)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool
	EventsChannel string

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string
	StorageBucket          string

	// Gemini API
	GeminiAPIKey      string
	GeminiCopyModel   string
	GeminiVisionModel string
	GeminiImageModel  string

	// Runware (Seedream)
	RunwareAPIURL string
	RunwareAPIKey string

	// Veo3
	Veo3APIEndpoint string
	Veo3APIKey      string
}

// Load - 환경변수 로드
func Load() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,
		EventsChannel: getEnv("EVENTS_CHANNEL", "pipeline:events"),

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", "assets"),

		// Gemini
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiCopyModel:   getEnv("GEMINI_COPY_MODEL", "gemini-2.5-flash"),
		GeminiVisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),

		// Runware
		RunwareAPIURL: getEnv("RUNWARE_API_URL", "https://api.runware.ai/v1"),
		RunwareAPIKey: getEnv("RUNWARE_API_KEY", ""),

		// Veo3
		Veo3APIEndpoint: getEnv("VEO3_API_ENDPOINT", ""),
		Veo3APIKey:      getEnv("VEO3_API_KEY", ""),
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisUseTLS)
	log.Printf("   Supabase: %s", cfg.SupabaseURL)
	log.Printf("   Gemini: copy=%s vision=%s image=%s", cfg.GeminiCopyModel, cfg.GeminiVisionModel, cfg.GeminiImageModel)

	return cfg, nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
