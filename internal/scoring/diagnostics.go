package scoring

import "fmt"

// DiagnosticKind classifies recovered problems per the error taxonomy.
type DiagnosticKind string

const (
	// DiagData covers per-item data problems processed best-effort.
	DiagData DiagnosticKind = "data"
	// DiagConfig covers non-fatal configuration fallbacks.
	DiagConfig DiagnosticKind = "config"
	// DiagFetch covers upstream retrieval failures that reduced coverage.
	DiagFetch DiagnosticKind = "fetch"
	// DiagArithmetic covers guarded numeric conditions.
	DiagArithmetic DiagnosticKind = "arithmetic"
	// DiagExcluded covers items dropped from scoring on purpose.
	DiagExcluded DiagnosticKind = "excluded"
)

// Diagnostic is a recovered, non-fatal problem attached to a run's results.
// Callers can assert on these instead of scraping logs.
type Diagnostic struct {
	Kind    DiagnosticKind
	ItemID  int
	Message string
}

func (d Diagnostic) String() string {
	if d.ItemID != 0 {
		return fmt.Sprintf("[%s] item %d: %s", d.Kind, d.ItemID, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}
