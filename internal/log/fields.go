package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldUserID     = "user_id"
	FieldMethod     = "method"
	FieldRoute      = "route"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldTxID       = "transaction_id"
	FieldTxType     = "transaction_type"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldGoalID     = "goal_id"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentInsight   = "insight"
	ComponentReport    = "report"
	ComponentBackend   = "backend"
	ComponentRateLimit = "rate_limit"
)

// Operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpAnalyze  = "analyze"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields is a builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithRequestID(requestID string) Fields {
	f[FieldRequestID] = requestID
	return f
}

func (f Fields) WithUser(userID string) Fields {
	if userID != "" {
		f[FieldUserID] = userID
	}
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction.
func (f Fields) WithTransaction(id, txType, amount, category string) Fields {
	f[FieldTxID] = id
	f[FieldTxType] = txType
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

// WithHTTP adds request and response fields for an access log line.
func (f Fields) WithHTTP(method, route, path string, status int, durationMs int64) Fields {
	f[FieldMethod] = method
	f[FieldRoute] = route
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts the fields to alternating key/value arguments for slog.
// Keys are not ordered.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
