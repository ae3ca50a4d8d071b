package server

// Severity grades a diagnostic event.
type Severity string

const (
	SevInfo  Severity = "info"
	SevWarn  Severity = "warn"
	SevError Severity = "error"
)

// Diagnostic is a structured trouble report pushed to /diag clients.
// T is seconds since the daemon started.
type Diagnostic struct {
	T        float64        `json:"t"`
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}
