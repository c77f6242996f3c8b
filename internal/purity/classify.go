// Package purity decides which call-like expressions are safe to mark as
// side-effect-free for downstream dead-code elimination.
//
// Design principle: if we say it's pure, it IS pure.
//   - Only calls that execute unconditionally at module evaluation qualify.
//   - Any argument disqualifies the call; arguments may carry effects and we
//     deliberately do not recurse into them.
//   - Known interop helpers are excluded by name even when they qualify
//     otherwise.
package purity

// Classify returns the verdict for one call site. The precedence is fixed:
// nesting, then argument count, then denylist. The result is a deterministic
// function of its inputs; there is no classifier state across visits and no
// error path.
//
// The zero-argument rule is a heuristic, not effect inference. Downstream
// minifiers depend on today's conservative behavior, so the order of checks
// must not change.
func Classify(site CallSite, ctx Context, denylist Denylist) Verdict {
	if !ctx.TopLevel() {
		return NotTopLevel
	}
	if site.ArgCount > 0 {
		return HasArguments
	}
	if site.Callee != CalleeUnresolved && denylist.Contains(site.Callee) {
		return DenylistedCallee
	}
	return Eligible
}
