package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldAccountID = "account_id"
	FieldOwnerID   = "owner_id"
	FieldMovement  = "movement_id"
	FieldPayment   = "payment_id"
	FieldObjective = "objective_id"
	FieldAmount    = "amount"
	FieldBalance   = "balance"
	FieldStatus    = "status"
	FieldCategory  = "category"
	FieldDueDate   = "due_date"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentStorage   = "storage"
	ComponentAccount   = "account"
	ComponentLedger    = "ledger"
	ComponentPayment   = "payment"
	ComponentObjective = "objective"
	ComponentAMQP      = "amqp"
	ComponentBlob      = "blob"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSweep    = "sweep"
	OpUpload   = "upload"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
