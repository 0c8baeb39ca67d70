package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category    Category
	Message     string
	Explanation string
	DocURL      string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Render Errors (R001-R099)
	// ============================================

	"R001": {
		Category:    CategoryRender,
		Message:     "Unsupported node kind",
		Explanation: "Component nodes are recognized but cannot be mounted or patched. Render the component to an element or text tree before passing it to the renderer.",
		DocURL:      "https://vango.dev/vtree/errors/R001",
	},
	"R002": {
		Category:    CategoryRender,
		Message:     "Child shape mismatch",
		Explanation: "A node's recorded child shape no longer agrees with its children. Trees must not be mutated after construction; build a new tree with vdom.H instead.",
		DocURL:      "https://vango.dev/vtree/errors/R002",
	},
	"R003": {
		Category:    CategorySurface,
		Message:     "Surface operation failed",
		Explanation: "The render surface rejected a call. The surface may be partially updated; remount the container before rendering again.",
		DocURL:      "https://vango.dev/vtree/errors/R003",
	},
	"R004": {
		Category:    CategoryRender,
		Message:     "Duplicate sibling key",
		Explanation: "Two siblings share the same key. Keys must be unique within one child list when the strict key policy is enabled.",
		DocURL:      "https://vango.dev/vtree/errors/R004",
	},
	"R005": {
		Category:    CategoryRender,
		Message:     "Unknown container",
		Explanation: "The container has no rendered tree to unmount.",
		DocURL:      "https://vango.dev/vtree/errors/R005",
	},
	"R006": {
		Category:    CategoryRender,
		Message:     "Invalid property value",
		Explanation: "Event bindings need a comparable surface.Listener such as *vdom.Handler, and style needs a map or a declaration string.",
		DocURL:      "https://vango.dev/vtree/errors/R006",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category:    CategoryConfig,
		Message:     "Invalid configuration file",
		Explanation: "The vtree configuration file could not be read or parsed.",
		DocURL:      "https://vango.dev/vtree/errors/C001",
	},
	"C002": {
		Category:    CategoryConfig,
		Message:     "Invalid configuration value",
		Explanation: "A configuration field has a value outside its allowed set.",
		DocURL:      "https://vango.dev/vtree/errors/C002",
	},
	"C003": {
		Category:    CategoryConfig,
		Message:     "Missing snapshot configuration",
		Explanation: "Snapshots need either snapshot.dir or snapshot.s3.bucket to be set.",
		DocURL:      "https://vango.dev/vtree/errors/C003",
	},

	// ============================================
	// Fixture Errors (F001-F099)
	// ============================================

	"F001": {
		Category:    CategoryFixture,
		Message:     "Invalid tree file",
		Explanation: "The tree file could not be parsed as YAML, JSON or HTML.",
		DocURL:      "https://vango.dev/vtree/errors/F001",
	},
	"F002": {
		Category:    CategoryFixture,
		Message:     "Invalid tree node",
		Explanation: "A node must be a string (text) or a mapping with either a tag or a text field.",
		DocURL:      "https://vango.dev/vtree/errors/F002",
	},

	// ============================================
	// Protocol Errors (P001-P099)
	// ============================================

	"P001": {
		Category:    CategoryProtocol,
		Message:     "Malformed op stream",
		Explanation: "The op frame could not be decoded or replayed.",
		DocURL:      "https://vango.dev/vtree/errors/P001",
	},

	// ============================================
	// Snapshot Errors (S001-S099)
	// ============================================

	"S001": {
		Category:    CategorySnapshot,
		Message:     "Snapshot storage failed",
		Explanation: "The snapshot could not be written to or read from its store.",
		DocURL:      "https://vango.dev/vtree/errors/S001",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
