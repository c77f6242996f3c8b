package purity

// CallKind distinguishes plain calls from constructor calls.
type CallKind uint8

const (
	KindCall CallKind = iota
	KindConstruct
)

func (k CallKind) String() string {
	if k == KindConstruct {
		return "construct"
	}
	return "call"
}

// CalleeUnresolved marks call sites whose callee is not a simple identifier
// or dotted member chain. Unresolved callees can never match the denylist;
// they fall through to Eligible when the other rules pass.
const CalleeUnresolved = ""

// CallSite describes one call or new expression as seen by the host
// traversal. The value is transient: it references positions inside the
// surrounding tree and is discarded after the visit.
type CallSite struct {
	Kind     CallKind
	Callee   string // static dotted name, or CalleeUnresolved
	ArgCount int
	Offset   uint // start byte of the expression in the source

	// LeadingComments holds the block comments immediately preceding the
	// expression, outermost first. The annotator appends the pure marker
	// here; the rewriter turns the appended marker into a text edit.
	LeadingComments []string
}

// Context is the per-visit lexical fact classification depends on. It is
// derived from the ancestor chain at visit time and never stored.
type Context struct {
	// FunctionDepth counts enclosing function, method, and arrow bodies
	// between the site and the program top level.
	FunctionDepth int
}

// TopLevel reports whether the site executes unconditionally during module
// evaluation.
func (c Context) TopLevel() bool {
	return c.FunctionDepth == 0
}
