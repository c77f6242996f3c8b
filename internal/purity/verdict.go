package purity

// Verdict is the classification result for a single call-like expression.
// It is produced fresh per site and carries no identity.
type Verdict uint8

const (
	// Eligible means the call may carry the pure marker.
	Eligible Verdict = iota
	// NotTopLevel means the call is nested inside a function or method body.
	NotTopLevel
	// HasArguments means the call passes at least one argument.
	HasArguments
	// DenylistedCallee means the callee is a known helper that must keep
	// its side effects (tslib interop helpers and friends).
	DenylistedCallee
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case NotTopLevel:
		return "not-top-level"
	case HasArguments:
		return "has-arguments"
	case DenylistedCallee:
		return "denylisted-callee"
	default:
		return "unknown"
	}
}
