package grapherror

// Category represents the main error category for graph operations
type Category string

const (
	// CategorySpec indicates spec decoding/validation errors
	CategorySpec Category = "spec"

	// CategoryLayout indicates layout simulation errors
	CategoryLayout Category = "layout"

	// CategorySurface indicates render surface errors
	CategorySurface Category = "surface"

	// CategoryTransition indicates display mode transition errors
	CategoryTransition Category = "transition"

	// CategoryExport indicates scene export errors
	CategoryExport Category = "export"

	// CategoryWebSocket indicates WebSocket connection/communication errors
	CategoryWebSocket Category = "websocket"

	// CategoryInternal indicates internal server errors
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Spec Subcategories
const (
	// SubcategorySpecInvalidSyntax indicates the payload could not be decoded
	SubcategorySpecInvalidSyntax = "invalid_syntax"

	// SubcategorySpecEmptySpec indicates the spec has no nodes (not necessarily an error)
	SubcategorySpecEmptySpec = "empty_spec"

	// SubcategorySpecMalformedLink indicates a link referenced an unknown node
	SubcategorySpecMalformedLink = "malformed_link"

	// SubcategorySpecDuplicateNode indicates duplicate node IDs after normalization
	SubcategorySpecDuplicateNode = "duplicate_node"

	// SubcategorySpecMinEngine indicates the spec requires a newer engine
	SubcategorySpecMinEngine = "min_engine"
)

// Layout Subcategories
const (
	// SubcategoryLayoutEmptyGraph indicates layout was asked to run with no bodies
	SubcategoryLayoutEmptyGraph = "empty_graph"

	// SubcategoryLayoutInterrupted indicates the simulation context was cancelled
	SubcategoryLayoutInterrupted = "interrupted"
)

// Surface Subcategories
const (
	// SubcategorySurfaceMissingContainer indicates the target surface is not registered
	SubcategorySurfaceMissingContainer = "missing_container"

	// SubcategorySurfaceDuplicate indicates a surface ID was registered twice
	SubcategorySurfaceDuplicate = "duplicate_registration"
)

// Transition Subcategories
const (
	// SubcategoryTransitionTimeout indicates the completion signal never arrived
	SubcategoryTransitionTimeout = "timeout"

	// SubcategoryTransitionInvalidPhase indicates an operation in the wrong phase
	SubcategoryTransitionInvalidPhase = "invalid_phase"
)

// Export Subcategories
const (
	// SubcategoryExportEncode indicates image encoding failed
	SubcategoryExportEncode = "encode"

	// SubcategoryExportUnsupportedFormat indicates an unknown export format
	SubcategoryExportUnsupportedFormat = "unsupported_format"

	// SubcategoryExportFont indicates the label font could not be prepared
	SubcategoryExportFont = "font"
)

// WebSocket Subcategories
const (
	// SubcategoryWSConnection indicates connection establishment failed
	SubcategoryWSConnection = "connection"

	// SubcategoryWSRead indicates error reading from WebSocket
	SubcategoryWSRead = "read"

	// SubcategoryWSWrite indicates error writing to WebSocket
	SubcategoryWSWrite = "write"

	// SubcategoryWSUpgrade indicates WebSocket upgrade failed
	SubcategoryWSUpgrade = "upgrade"

	// SubcategoryWSClosed indicates connection was closed
	SubcategoryWSClosed = "closed"
)

// Internal Subcategories
const (
	// SubcategoryInternalPanic indicates a panic was recovered
	SubcategoryInternalPanic = "panic"

	// SubcategoryInternalConfig indicates configuration error
	SubcategoryInternalConfig = "config"

	// SubcategoryInternalState indicates invalid internal state
	SubcategoryInternalState = "invalid_state"
)
