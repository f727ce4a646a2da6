package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Storage Errors (F100-F119)
	// ============================================

	"F101": {
		Category: CategoryStorage,
		Message:  "Storage read failed",
		Detail:   "The storage backend returned an error while reading a key.",
		DocURL:   "https://folio.dev/docs/errors/F101",
	},
	"F102": {
		Category: CategoryStorage,
		Message:  "Storage write failed",
		Detail:   "The storage backend returned an error while writing a key.",
		DocURL:   "https://folio.dev/docs/errors/F102",
	},
	"F103": {
		Category: CategoryStorage,
		Message:  "Storage delete failed",
		Detail:   "The storage backend returned an error while removing a key.",
		DocURL:   "https://folio.dev/docs/errors/F103",
	},
	"F104": {
		Category: CategoryStorage,
		Message:  "Unknown storage driver",
		Detail:   "Supported drivers are memory, sqlite and s3.",
		DocURL:   "https://folio.dev/docs/errors/F104",
	},
	"F105": {
		Category: CategoryStorage,
		Message:  "Storage open failed",
		Detail:   "The storage backend could not be opened or initialized.",
		DocURL:   "https://folio.dev/docs/errors/F105",
	},

	// ============================================
	// Auth Errors (F200-F219)
	// ============================================

	"F201": {
		Category: CategoryAuth,
		Message:  "Login failed",
		Detail:   "The login request was rejected.",
		DocURL:   "https://folio.dev/docs/errors/F201",
	},
	"F202": {
		Category: CategoryAuth,
		Message:  "Not logged in",
		Detail:   "This operation requires an authenticated session.",
		DocURL:   "https://folio.dev/docs/errors/F202",
	},
	"F203": {
		Category: CategoryAuth,
		Message:  "Password reset failed",
		Detail:   "The password reset request was rejected.",
		DocURL:   "https://folio.dev/docs/errors/F203",
	},

	// ============================================
	// Config Errors (F300-F319)
	// ============================================

	"F301": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The folio.json file could not be read or parsed.",
		DocURL:   "https://folio.dev/docs/errors/F301",
	},
	"F302": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No folio.json file was found.",
		DocURL:   "https://folio.dev/docs/errors/F302",
	},
	"F303": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   "https://folio.dev/docs/errors/F303",
	},

	// ============================================
	// Transport Errors (F400-F419)
	// ============================================

	"F401": {
		Category: CategoryTransport,
		Message:  "Invalid request body",
		Detail:   "The request body could not be decoded as JSON.",
		DocURL:   "https://folio.dev/docs/errors/F401",
	},
	"F402": {
		Category: CategoryTransport,
		Message:  "WebSocket upgrade failed",
		Detail:   "The client connection could not be upgraded to a WebSocket.",
		DocURL:   "https://folio.dev/docs/errors/F402",
	},
	"F403": {
		Category: CategoryTransport,
		Message:  "Invalid theme",
		Detail:   "Theme must be \"light\" or \"dark\".",
		DocURL:   "https://folio.dev/docs/errors/F403",
	},
	"F404": {
		Category: CategoryTransport,
		Message:  "Portfolio not found",
		Detail:   "No portfolio with the given id exists.",
		DocURL:   "https://folio.dev/docs/errors/F404",
	},
	"F405": {
		Category: CategoryTransport,
		Message:  "Invalid notification type",
		Detail:   "Notification type must be \"info\", \"warning\" or \"error\".",
		DocURL:   "https://folio.dev/docs/errors/F405",
	},
	"F406": {
		Category:   CategoryTransport,
		Message:    "Too many attempts",
		Detail:     "Login and password reset attempts are rate limited per client.",
		Suggestion: "Wait a moment and try again.",
		DocURL:     "https://folio.dev/docs/errors/F406",
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
