package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldSessionID     = "session_id"
	FieldQueryID       = "query_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldToolName      = "tool_name"
	FieldToolRound     = "tool_round"
	FieldExecutionTime = "execution_time_ms"
	FieldResultSize    = "result_size"
	FieldQuestionLen   = "question_len"
	FieldTransactionID = "transaction_id"
	FieldMerchant      = "merchant"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldBatchSize     = "batch_size"
	FieldEmbedded      = "embedded"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAgent     = "agent"
	ComponentTracker   = "tracker"
	ComponentAnalytics = "analytics"
	ComponentVector    = "vector"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpIngest   = "ingest"
	OpEmbed    = "embed"
	OpSearch   = "search"
	OpQuery    = "query"
	OpToolCall = "tool_call"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
