// Package parser drives the host traversal: it parses ECMAScript-family
// sources with tree-sitter and surfaces every call-like expression, in
// document order, together with the lexical context the classifier needs.
package parser

import (
	"fmt"
	"path/filepath"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/puremark/internal/debug"
	"github.com/standardbeagle/puremark/internal/purity"
)

// Site is one visited call-like expression plus its per-visit facts.
// Context is recomputed from the ancestor chain on every visit and never
// depends on sibling state.
type Site struct {
	purity.CallSite
	Context purity.Context
	Line    int // 1-based, for reports
}

// Parser holds per-extension tree-sitter parsers. Grammars are initialized
// lazily on first use; a Parser is safe for concurrent CollectCallSites
// calls after initialization but each call parses independently.
type Parser struct {
	parserMutex sync.RWMutex
	parsers     map[string]*tree_sitter.Parser
	lazyInit    map[string]func()
	initialized map[string]bool
}

// New creates a parser with JavaScript and TypeScript support registered.
func New() *Parser {
	p := &Parser{
		parsers:     make(map[string]*tree_sitter.Parser),
		lazyInit:    make(map[string]func()),
		initialized: make(map[string]bool),
	}
	p.registerLazyInit([]string{".js", ".jsx", ".mjs", ".cjs"}, p.setupJavaScript)
	p.registerLazyInit([]string{".ts", ".tsx"}, p.setupTypeScript)
	return p
}

// Supported reports whether the file extension has a registered grammar.
func (p *Parser) Supported(path string) bool {
	p.parserMutex.RLock()
	defer p.parserMutex.RUnlock()
	_, ok := p.lazyInit[filepath.Ext(path)]
	return ok
}

func (p *Parser) registerLazyInit(extensions []string, initFunc func()) {
	for _, ext := range extensions {
		p.lazyInit[ext] = initFunc
	}
}

// ensureParserInitialized initializes the grammar for ext on first use.
func (p *Parser) ensureParserInitialized(ext string) bool {
	p.parserMutex.RLock()
	if p.initialized[ext] {
		p.parserMutex.RUnlock()
		return true
	}
	initFunc, hasInitFunc := p.lazyInit[ext]
	p.parserMutex.RUnlock()

	if !hasInitFunc {
		return false
	}

	p.parserMutex.Lock()
	defer p.parserMutex.Unlock()

	// Another goroutine may have initialized while we waited for the lock.
	if p.initialized[ext] {
		return true
	}

	initFunc()

	// The init function registers a parser for every extension it covers;
	// mark all of them so sibling extensions skip the slow path.
	for e := range p.lazyInit {
		if _, ok := p.parsers[e]; ok {
			p.initialized[e] = true
		}
	}
	p.initialized[ext] = true
	return p.parsers[ext] != nil
}

// CollectCallSites parses content and returns every call and new expression
// in document order. Malformed input is not validated here: tree-sitter
// produces a best-effort tree and call-like nodes outside error regions are
// still visited.
func (p *Parser) CollectCallSites(path string, content []byte) (sites []Site, err error) {
	ext := filepath.Ext(path)

	if !p.ensureParserInitialized(ext) {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	p.parserMutex.RLock()
	parser, ok := p.parsers[ext]
	p.parserMutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no parser registered for %q", ext)
	}

	// The tree-sitter C library can mutate input buffers via CGO, so parse
	// a defensive copy and keep the original for text extraction.
	parserBuffer := make([]byte, len(content))
	copy(parserBuffer, content)

	defer func() {
		if r := recover(); r != nil {
			debug.Logf("tree-sitter panic in %s: %v", path, r)
			err = fmt.Errorf("parser crashed on %s: %v", path, r)
		}
	}()

	p.parserMutex.Lock()
	tree := parser.Parse(parserBuffer, nil)
	p.parserMutex.Unlock()
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	w := &walker{src: parserBuffer}
	w.visit(tree.RootNode(), 0)
	return w.sites, nil
}
