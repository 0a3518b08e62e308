package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"gqlmap/internal/core/errors"
	"gqlmap/internal/shared/util"
)

// Parser parses web-application sources with tree-sitter. Only the
// JavaScript/TypeScript family matters here; usage scanning never needs
// other grammars.
type Parser struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewParser() *Parser {
	p := &Parser{
		languages:  make(map[string]*sitter.Language),
		extensions: make(map[string]string),
	}

	p.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
	p.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	p.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())

	for ext, lang := range map[string]string{
		".js":  "javascript",
		".jsx": "javascript",
		".mjs": "javascript",
		".cjs": "javascript",
		".ts":  "typescript",
		".mts": "typescript",
		".cts": "typescript",
		".tsx": "tsx",
	} {
		p.extensions[ext] = lang
	}
	return p
}

// Source is one parsed file. Callers own the tree and must Close it.
type Source struct {
	Path     string
	Language string
	Content  []byte
	Tree     *sitter.Tree
}

func (s *Source) Root() *sitter.Node {
	if s == nil || s.Tree == nil {
		return nil
	}
	return s.Tree.RootNode()
}

func (s *Source) Close() {
	if s != nil && s.Tree != nil {
		s.Tree.Close()
	}
}

func (p *Parser) ParseFile(path string, content []byte) (*Source, error) {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.languages[lang])

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParseFailure, "parse failed"), errors.CtxPath, path)
	}

	return &Source{Path: path, Language: lang, Content: content, Tree: tree}, nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.detectLanguage(path) != ""
}

func (p *Parser) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

// SupportedExtensions lists the handled file extensions, sorted.
func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}
