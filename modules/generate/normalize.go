package generate

import (
	"encoding/json"
	"strings"

	"adcanvas-server/modules/common/errs"
)

// urlKeys - 객체 응답에서 자산 URL 을 찾는 고정 우선순위 키 목록
var urlKeys = []string{
	"url", "imageURL", "image_url", "videoURL", "video_url",
	"output", "data", "images",
}

// ResolveSourceURL - 프로바이더의 이질적인 응답에서 승자 URL 하나를 뽑는다.
// 허용 형태(우선순위 순): JSON 문자열 → 문자열/객체 배열의 첫 원소 →
// url 계열 필드를 가진 객체. 어느 것에도 맞지 않으면 닫힌 실패.
func ResolveSourceURL(provider string, raw []byte) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", &errs.MalformedProviderResponseError{Provider: provider, Raw: "<empty>"}
	}

	if !json.Valid([]byte(trimmed)) {
		// 따옴표 없는 맨 URL 문자열
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			return trimmed, nil
		}
		return "", &errs.MalformedProviderResponseError{Provider: provider, Raw: truncateRaw(trimmed)}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), nil
		}

	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil && len(arr) > 0 {
			if url, err := ResolveSourceURL(provider, arr[0]); err == nil {
				return url, nil
			}
		}

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			for _, key := range urlKeys {
				if v, ok := obj[key]; ok {
					if url, err := ResolveSourceURL(provider, v); err == nil {
						return url, nil
					}
				}
			}
		}
	}

	return "", &errs.MalformedProviderResponseError{Provider: provider, Raw: truncateRaw(trimmed)}
}

func truncateRaw(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
