package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldMonth          = "month"
	FieldAmountCents    = "amount_cents"
	FieldCategory       = "category"
	FieldTxType         = "transaction_type"
	FieldLedgerRef      = "ledger_ref"
	FieldForecastMethod = "forecast_method"
	FieldHistoryMonths  = "history_months"
	FieldPeriods        = "periods"
	FieldConfidence     = "confidence"
	FieldModel          = "model"
	FieldEventID        = "event_id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentForecast   = "forecast"
	ComponentClassifier = "classifier"
	ComponentReceipt    = "receipt"
	ComponentAssistant  = "assistant"
	ComponentLedger     = "ledger"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpClassify = "classify"
	OpForecast = "forecast"
	OpExtract  = "extract"
	OpChat     = "chat"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpScan     = "scan"
	OpTrain    = "train"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds ledger transaction fields
func (f LogFields) WithTransaction(txType string, month string, amountCents int64, category string) LogFields {
	f[FieldTxType] = txType
	f[FieldMonth] = month
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
	return f
}

// WithForecast adds forecast outcome fields
func (f LogFields) WithForecast(method string, historyMonths, periods int) LogFields {
	f[FieldForecastMethod] = method
	f[FieldHistoryMonths] = historyMonths
	f[FieldPeriods] = periods
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
