package logging

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldRunID     = "run_id"
	FieldDocument  = "document"
	FieldPeriod    = "period"
	FieldItem      = "item"
	FieldReport    = "report"
	FieldGroup     = "group"
	FieldCell      = "cell"
	FieldAttempt   = "attempt"
	FieldDuration  = "duration_ms"
	FieldRule      = "rule"
	FieldError     = "error"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentExtract  = "extract"
	ComponentStitch   = "stitch"
	ComponentClassify = "classify"
	ComponentLayout   = "layout"
	ComponentSheets   = "sheets"
	ComponentAudit    = "audit"
	ComponentStore    = "store"
)

// Operations defines standard operation names
const (
	OpExtract  = "extract"
	OpSuggest  = "suggest"
	OpTransfer = "transfer"
	OpRun      = "run"
)
