package llm

import "context"

// Provider is the capability implemented by each remote vision extraction
// service. The orchestrator holds a priority-ordered slice of these and
// never looks past the interface beyond Name().
type Provider interface {
	// Name returns the provider label reported to callers.
	Name() string

	// Available reports whether the variant can be called at all. A missing
	// credential, or a previous credential rejection, makes the variant
	// unavailable for the rest of the process lifetime so the orchestrator
	// can skip it without spending time budget.
	Available() bool

	// Extract sends the image and returns the service's raw textual
	// completion. The deadline carried by ctx bounds the call; exceeding it
	// yields a timeout error without blocking the caller further.
	Extract(ctx context.Context, image []byte) (string, error)
}
