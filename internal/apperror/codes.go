package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidState Code = "INVALID_STATE"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// Node throttling
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access error codes
const (
	// CodeConnectionError is returned for any transport failure talking to the node.
	CodeConnectionError         Code = "CONNECTION_ERROR"
	CodeEthereumSubscribeFailed Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeBlockNotFound           Code = "BLOCK_NOT_FOUND"
	CodeContractCallFailed      Code = "CONTRACT_CALL_FAILED"
)

// Quoting error codes
const (
	CodePoolNotFound  Code = "POOL_NOT_FOUND"
	CodeInvalidQuote  Code = "INVALID_QUOTE"
	CodeUnknownVenue  Code = "UNKNOWN_VENUE"
	CodeNoVenueQuotes Code = "NO_VENUE_QUOTES"
)

// Flash-loan construction and submission error codes
const (
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeInvalidDecision  Code = "INVALID_DECISION"
	CodeSubmissionError  Code = "SUBMISSION_ERROR"
	CodeRevertError      Code = "REVERT_ERROR"
	CodeReceiptTimeout   Code = "RECEIPT_TIMEOUT"
	CodeSigningFailed    Code = "SIGNING_FAILED"
)

// Circuit breaker errors
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
