package constants

// Route prefixes
const (
	APIRoute      = "/api/v1"
	MetricsRoute  = "/metrics"
	DocsRoute     = "/docs/api/"
	WebhooksRoute = "/webhooks"
	PlansRoute    = "/plans"
)

// Default pagination for list endpoints.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)
