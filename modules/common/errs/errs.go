package errs

import "fmt"

// 파이프라인 전역 에러 분류. 핸들러와 오케스트레이터는 errors.As 로 종류를 판별한다.

// PreconditionError - 필수 전제조건 누락 (브랜드 프로필 없음 등). 재시도하지 않는다.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// NotFoundError - 참조 리소스 조회 실패 (잘못된 ID 또는 소유자 불일치). 재시도하지 않는다.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// SchemaValidationError - 모델이 스키마에 맞지 않는 출력을 반환함. 정책에 따라 재시도 후 표면화.
type SchemaValidationError struct {
	Detail string
}

func (e *SchemaValidationError) Error() string {
	return "schema validation failed: " + e.Detail
}

// CopyGenerationError - 카피 생성이 재시도까지 모두 실패함. 배치 전체를 중단시킨다.
type CopyGenerationError struct {
	Attempts int
	Err      error
}

func (e *CopyGenerationError) Error() string {
	return fmt.Sprintf("copy generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CopyGenerationError) Unwrap() error { return e.Err }

// ProviderError - 생성 프로바이더가 자체 재시도를 소진한 뒤의 실패.
// 시도 횟수와 마지막 원인 메시지를 그대로 들고 올라간다.
type ProviderError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedProviderResponseError - 프로바이더 응답이 알려진 어떤 형태와도 일치하지 않음.
// ProviderError 로 감싸져 올라가므로 errors.As 로 양쪽 모두 판별 가능하다.
type MalformedProviderResponseError struct {
	Provider string
	Raw      string
}

func (e *MalformedProviderResponseError) Error() string {
	return fmt.Sprintf("provider %s returned unrecognized response shape: %s", e.Provider, e.Raw)
}

// ThresholdExceededError - 배치에서 성공 개수가 최소 기준에 못 미침.
type ThresholdExceededError struct {
	Succeeded int
	Failed    int
	Minimum   int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("batch below success threshold: %d succeeded, %d failed (minimum %d)", e.Succeeded, e.Failed, e.Minimum)
}

// PersistenceError - 아티팩트 스토어 실패. 해당 아이템에 대해 치명적이며 재시도하지 않는다.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("artifact store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
