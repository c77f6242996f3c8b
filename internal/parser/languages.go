package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func (p *Parser) setupJavaScript() {
	parser := tree_sitter.NewParser()
	languagePtr := tree_sitter_javascript.Language()
	language := tree_sitter.NewLanguage(languagePtr)
	if err := parser.SetLanguage(language); err != nil {
		return
	}

	p.parsers[".js"] = parser
	p.parsers[".jsx"] = parser
	p.parsers[".mjs"] = parser
	p.parsers[".cjs"] = parser
}

func (p *Parser) setupTypeScript() {
	parser := tree_sitter.NewParser()
	languagePtr := tree_sitter_typescript.LanguageTypescript()
	language := tree_sitter.NewLanguage(languagePtr)
	if err := parser.SetLanguage(language); err != nil {
		return
	}

	p.parsers[".ts"] = parser
	p.parsers[".tsx"] = parser
}
