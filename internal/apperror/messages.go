package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidState: "Invalid state for this operation",

	// Configuration
	CodeConfigurationError: "Configuration error",

	CodeRateLimitExceeded: "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Chain access
	CodeConnectionError:         "Failed to reach the blockchain node",
	CodeEthereumSubscribeFailed: "Failed to subscribe to new block headers",
	CodeBlockNotFound:           "Block not found",
	CodeContractCallFailed:      "Smart contract call failed",

	// Quoting
	CodePoolNotFound:  "Liquidity pool not found for token pair",
	CodeInvalidQuote:  "Invalid quote data",
	CodeUnknownVenue:  "Venue has no router configured",
	CodeNoVenueQuotes: "No venue returned a quote",

	// Flash loan
	CodeInvalidParameter: "Invalid flash loan parameter",
	CodeInvalidDecision:  "Decision does not call for a trade",
	CodeSubmissionError:  "Failed to submit flash loan transaction",
	CodeRevertError:      "Flash loan transaction reverted",
	CodeReceiptTimeout:   "Timed out waiting for transaction receipt",
	CodeSigningFailed:    "Failed to sign transaction",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
