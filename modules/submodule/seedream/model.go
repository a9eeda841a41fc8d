package seedream

// Seedream 4.0 모델 ID (Runware - ByteDance)
const SeedreamModelID = "bytedance:seedream-4.0"

// RunwareRequest - Runware API 요청 구조체 (Seedream용)
type RunwareRequest struct {
	TaskType        string   `json:"taskType"`
	TaskUUID        string   `json:"taskUUID"`
	PositivePrompt  string   `json:"positivePrompt"`
	Model           string   `json:"model"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	NumberResults   int      `json:"numberResults"`
	OutputFormat    string   `json:"outputFormat"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
}
