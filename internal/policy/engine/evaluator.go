package engine

import "context"

// Operation names passed to policies as input.operation.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
)

// Settings are the operator toggles exposed to policies as input.settings.
type Settings struct {
	OnePerDay              bool
	UpdatesUseCreateWindow bool
}

// Input is the per-request context a policy is evaluated against.
type Input struct {
	UserID    string
	Operation string
	Settings  Settings
}

// Rules holds the sleep log rules in effect for one request.
type Rules struct {
	// OnePerDay rejects a second session for the same user and sleep date.
	OnePerDay bool
	// UpdatesUseCreateWindow validates updates against today/yesterday instead of the record's own sleep date.
	UpdatesUseCreateWindow bool
}

// Evaluator decides which sleep log rules apply to a request.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) (Rules, error)
}

// DefaultRules returns the rules implied directly by settings, used when no policy result is available.
func DefaultRules(s Settings) Rules {
	return Rules{OnePerDay: s.OnePerDay, UpdatesUseCreateWindow: s.UpdatesUseCreateWindow}
}
