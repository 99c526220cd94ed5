package audithook

// Action constants for audit events.
const (
	// Sale lifecycle actions
	ActionSaleInitialized = "sale.initialized"
	ActionSaleFinalized   = "sale.finalized"
	ActionConfigUpdated   = "sale.config_updated"
	ActionSalePaused      = "sale.paused"
	ActionSaleUnpaused    = "sale.unpaused"
	ActionOwnerChanged    = "sale.ownership_transferred"

	// Purchase actions
	ActionPurchase         = "purchase.accepted"
	ActionPurchaseRejected = "purchase.rejected"

	// Settlement actions
	ActionClaim          = "entitlement.claimed"
	ActionSweep          = "funds.swept"
	ActionTransferFailed = "asset.transfer_failed"

	// Persistence actions
	ActionPersistFailed = "store.persist_failed"
)

// Resource constants for audit events.
const (
	ResourceSale        = "sale"
	ResourceEntitlement = "entitlement"
	ResourceAsset       = "asset"
	ResourceStore       = "store"
)

// Category constants for audit events.
const (
	CategoryAdmin      = "admin"
	CategoryAdmission  = "admission"
	CategorySettlement = "settlement"
	CategoryAccess     = "access"
	CategoryStorage    = "storage"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
