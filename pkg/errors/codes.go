package errors

// ErrorCode is a string identifier for a specific failure category. Codes are
// stable API: logging pipelines and metric labels key on them, so existing
// values must never be renamed.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
)

// Scoring module error codes.
const (
	// ErrCodeScoringFailed marks a dimension evaluation whose model reply
	// could not be parsed into a result at all.
	ErrCodeScoringFailed ErrorCode = "SCORE_001"

	// ErrCodeInvalidWeights marks caller-supplied dimension weights that do
	// not sum to 1.0 within tolerance.
	ErrCodeInvalidWeights ErrorCode = "SCORE_002"

	// ErrCodeInvalidScore marks a DimensionResult constructed with a score or
	// confidence outside its permitted range.
	ErrCodeInvalidScore ErrorCode = "SCORE_003"

	// ErrCodeUnknownDimension marks a request naming a dimension this core
	// does not score.
	ErrCodeUnknownDimension ErrorCode = "SCORE_004"

	// ErrCodePaperNotFound marks a scoring request for a paper the caller
	// could not supply.
	ErrCodePaperNotFound ErrorCode = "SCORE_005"
)

// Model-call collaborator error codes.
const (
	ErrCodeLLMError       ErrorCode = "LLM_001"
	ErrCodeLLMBadResponse ErrorCode = "LLM_002"
	ErrCodeLLMRateLimited ErrorCode = "LLM_003"
	ErrCodeLLMUnavailable ErrorCode = "LLM_004"
)

// Enrichment collaborator error codes. These never reach the caller of the
// scoring service; they exist so the enrichment boundary can log a typed
// failure before surfacing an absent result.
const (
	ErrCodeEnrichmentError    ErrorCode = "ENR_001"
	ErrCodeCitationGraphError ErrorCode = "ENR_002"
	ErrCodeKnowledgeError     ErrorCode = "ENR_003"
)

// Score-cache error codes.
const (
	ErrCodeCacheMiss    ErrorCode = "CACHE_001"
	ErrCodeMalformedDOI ErrorCode = "CACHE_002"
)

// CodeOK is returned by GetCode for a nil error.
const CodeOK ErrorCode = "OK"

// CodeUnknown is returned by GetCode when no *AppError is present in a chain.
const CodeUnknown ErrorCode = "UNKNOWN"
