package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Hint     string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Runtime Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryRuntime,
		Message:  "Invalid child",
		Hint:     "Children must be strings, numbers, nodes, nil, false or slices of those.",
	},
	"E101": {
		Category: CategoryRuntime,
		Message:  "Invalid ref",
		Hint:     "Pass a *inactive.Ref from CreateRef() or a func(dom.Element).",
	},
	"E102": {
		Category: CategoryRuntime,
		Message:  "Invalid lifecycle callback",
		Hint:     "onEnter takes a func(dom.Element), onExit takes a func().",
	},
	"E103": {
		Category: CategoryRuntime,
		Message:  "Invalid style value",
		Hint:     "Style values must be strings or numbers.",
	},
	"E104": {
		Category: CategoryRuntime,
		Message:  "Invalid mount root",
		Hint:     "Mount needs a non-nil root node, such as document.body. Callbacks fire for insertions under that root.",
	},
	"E105": {
		Category: CategoryRuntime,
		Message:  "Invalid element type",
		Hint:     "Use inactive.Tag(\"div\") or an inactive.Component.",
	},

	// ============================================
	// Configuration Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Hint:     "Check that inactive.json or inactive.yaml is well formed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Hint:     "Run 'inactive init' to create inactive.json.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Hint:     "Use one of debug, info, warn, error.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Configuration already exists",
		Hint:     "Pass --force to overwrite it.",
	},

	// ============================================
	// DOM Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryDOM,
		Message:  "Hierarchy request error",
	},
	"E131": {
		Category: CategoryDOM,
		Message:  "Wrong document",
	},
	"E132": {
		Category: CategoryDOM,
		Message:  "Node not found",
	},
	"E133": {
		Category: CategoryDOM,
		Message:  "Invalid character",
	},
	"E134": {
		Category: CategoryDOM,
		Message:  "Invalid observer options",
		Hint:     "Set at least one of ChildList, Attributes or CharacterData.",
	},
	"E135": {
		Category: CategoryDOM,
		Message:  "JavaScript exception",
	},
	"E136": {
		Category: CategoryDOM,
		Message:  "Invalid query",
		Hint:     "Queries are XPath 1.0 expressions, e.g. //li[@class='item'].",
	},

	// ============================================
	// Build Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryBuild,
		Message:  "Go toolchain not found",
		Hint:     "Install Go from https://go.dev/dl/ and make sure it is in PATH.",
	},
	"E141": {
		Category: CategoryBuild,
		Message:  "WebAssembly build failed",
	},
	"E142": {
		Category: CategoryBuild,
		Message:  "Output directory error",
	},
	"E143": {
		Category: CategoryBuild,
		Message:  "wasm_exec.js not found",
		Hint:     "Your Go installation is missing lib/wasm/wasm_exec.js.",
	},

	// ============================================
	// Deploy Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryDeploy,
		Message:  "Upload failed",
	},
	"E151": {
		Category: CategoryDeploy,
		Message:  "Deploy bucket not configured",
		Hint:     "Set deploy.bucket in inactive.json or pass --bucket.",
	},
	"E152": {
		Category: CategoryDeploy,
		Message:  "Deploy credentials missing",
		Hint:     "Configure AWS credentials through the environment, ~/.aws/credentials, AWS_PROFILE or SSO.",
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
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
