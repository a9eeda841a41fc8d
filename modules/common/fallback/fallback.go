package fallback

import "strings"

var validAspectRatios = map[string]bool{
	"1:1":  true,
	"16:9": true,
	"9:16": true,
	"4:3":  true,
	"3:4":  true,
	"4:5":  true,
}

// StringOr - 공백을 제거한 값 또는 기본값
func StringOr(value, def string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return def
}

// AspectRatio - 허용된 비율만 통과, 아니면 1:1
func AspectRatio(value string) string {
	value = strings.TrimSpace(value)
	if validAspectRatios[value] {
		return value
	}
	return "1:1"
}

// Quality - 품질 프리셋 기본값 처리
func Quality(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "draft", "standard", "high":
		return strings.ToLower(strings.TrimSpace(value))
	}
	return "standard"
}

// Clamp - 정수 범위 제한
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
