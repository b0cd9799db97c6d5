package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidParameter     ErrorCode = 101
	ErrCodeUnknownVenue         ErrorCode = 102
	ErrCodeUnknownStrategy      ErrorCode = 103
	ErrCodeDuplicateVenue       ErrorCode = 104
	ErrCodeVenueNotConfigured   ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106
	ErrCodeVersionMismatch      ErrorCode = 107
	ErrCodeConfigReadFailed     ErrorCode = 108

	// Store errors (200-299)
	ErrCodeStoreUnavailable ErrorCode = 200
	ErrCodeQueryFailed      ErrorCode = 201
	ErrCodeWriteFailed      ErrorCode = 202
	ErrCodeRefreshFailed    ErrorCode = 203
	ErrCodeStoreClosed      ErrorCode = 204
	ErrCodeUnsupportedStore ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeInsufficientData     ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyConstruction ErrorCode = 400
	ErrCodeUnsupportedStrategy  ErrorCode = 401
	ErrCodeStrategySeedFailed   ErrorCode = 402
	ErrCodeSizingFailed         ErrorCode = 403

	// Trading errors (500-599)
	ErrCodeOrderFailed        ErrorCode = 500
	ErrCodeInvalidOrder       ErrorCode = 501
	ErrCodeAccountUnavailable ErrorCode = 502
	ErrCodeNoGateway          ErrorCode = 503

	// Engine errors (600-699)
	ErrCodeEngineInitFailed    ErrorCode = 600
	ErrCodeGatewayConstruction ErrorCode = 601
	ErrCodeUnitFailed          ErrorCode = 602
	ErrCodeUnitPanicked        ErrorCode = 603
	ErrCodeEngineStopped       ErrorCode = 604
	ErrCodeEngineRunning       ErrorCode = 605

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataParseFailed ErrorCode = 701
	ErrCodeInvalidTimespan       ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703
	ErrCodeStreamFailed          ErrorCode = 704

	// Queue errors (800-899)
	ErrCodeQueueFull   ErrorCode = 800
	ErrCodeQueueClosed ErrorCode = 801
)
