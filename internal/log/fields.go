package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldMemberID    = "member_id"
	FieldDocID       = "doc_id"
	FieldCollection  = "collection"
	FieldAmountCents = "amount_cents"
	FieldYear        = "year"
	FieldBirthday    = "birthday"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentKasse    = "kasse"
	ComponentBirthday = "birthday"
	ComponentLedger   = "ledger_export"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpReconcile = "reconcile"
	OpSync      = "sync"
	OpExport    = "export"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
