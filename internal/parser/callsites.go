package parser

import (
	"bytes"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/puremark/internal/purity"
)

// functionScopeKinds are the node kinds that introduce a function or method
// body. Descending into any of them moves every child off the top level.
// Class static blocks are deliberately absent: they execute during module
// evaluation, and the pass has always treated them as top level.
var functionScopeKinds = map[string]struct{}{
	"function_declaration":           {},
	"function_expression":            {},
	"function":                       {}, // older grammar name for function_expression
	"generator_function":             {},
	"generator_function_declaration": {},
	"arrow_function":                 {},
	"method_definition":              {},
}

// walker performs one pre-order pass over the tree. Function depth is the
// only state threaded through the walk; it depends on the ancestor chain
// alone, so sibling subtrees are independent.
type walker struct {
	src   []byte
	sites []Site
}

func (w *walker) visit(node *tree_sitter.Node, depth int) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "call_expression":
		w.record(node, purity.KindCall, "function", depth)
	case "new_expression":
		w.record(node, purity.KindConstruct, "constructor", depth)
	}

	childDepth := depth
	if _, ok := functionScopeKinds[node.Kind()]; ok {
		// Matches the annotator's historical behavior: the whole function
		// node, parameter defaults included, counts as nested.
		childDepth++
	}

	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		w.visit(node.Child(uint(i)), childDepth)
	}
}

func (w *walker) record(node *tree_sitter.Node, kind purity.CallKind, calleeField string, depth int) {
	offset := uint(node.StartByte())
	site := Site{
		CallSite: purity.CallSite{
			Kind:            kind,
			Callee:          calleeName(node.ChildByFieldName(calleeField), w.src),
			ArgCount:        countArguments(node.ChildByFieldName("arguments")),
			Offset:          offset,
			LeadingComments: leadingComments(w.src, int(offset)),
		},
		Context: purity.Context{FunctionDepth: depth},
		Line:    lineOf(w.src, offset),
	}
	w.sites = append(w.sites, site)
}

// calleeName resolves a static dotted name for the callee. Anything beyond
// an identifier or a chain of identifier member accesses is unresolved.
func calleeName(node *tree_sitter.Node, src []byte) string {
	if node == nil {
		return purity.CalleeUnresolved
	}
	switch node.Kind() {
	case "identifier":
		return string(src[node.StartByte():node.EndByte()])
	case "member_expression":
		object := calleeName(node.ChildByFieldName("object"), src)
		if object == purity.CalleeUnresolved {
			return purity.CalleeUnresolved
		}
		property := node.ChildByFieldName("property")
		if property == nil || property.Kind() != "property_identifier" {
			return purity.CalleeUnresolved
		}
		return object + "." + string(src[property.StartByte():property.EndByte()])
	default:
		return purity.CalleeUnresolved
	}
}

// countArguments counts the expressions inside an arguments node, skipping
// punctuation and comments. A bare `new Foo` has no arguments node at all.
func countArguments(args *tree_sitter.Node) int {
	if args == nil {
		return 0
	}
	count := 0
	total := int(args.ChildCount())
	for i := 0; i < total; i++ {
		child := args.Child(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "(", ")", ",", "comment":
		default:
			count++
		}
	}
	return count
}

// leadingComments collects the block comments immediately preceding offset,
// outermost first. Only whitespace may separate them from the node; a line
// comment or any other text ends the scan.
func leadingComments(src []byte, offset int) []string {
	var comments []string
	end := offset
	for {
		j := end
		for j > 0 && isSpace(src[j-1]) {
			j--
		}
		if j < 4 || src[j-1] != '/' || src[j-2] != '*' {
			break
		}
		start := bytes.LastIndex(src[:j-2], []byte("/*"))
		if start < 0 {
			break
		}
		comments = append([]string{string(src[start:j])}, comments...)
		end = start
	}
	return comments
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// lineOf returns the 1-based line of a byte offset.
func lineOf(src []byte, offset uint) int {
	line := 1
	max := int(offset)
	if max > len(src) {
		max = len(src)
	}
	for i := 0; i < max; i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return line
}
