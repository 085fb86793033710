package health

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"
)

// Probe paths served next to the metrics endpoint.
const (
	PathHealth    = "/health"
	PathReadiness = "/ready"
	PathLiveness  = "/live"
)

// drainingCheckName is the readiness entry reported while draining.
const drainingCheckName = "draining"
