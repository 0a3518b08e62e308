package extract

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/shared/observability"
)

// codegenPathHints mark conventional GraphQL codegen output locations.
var codegenPathHints = []string{"__generated__", "/generated/", ".generated."}

// codegenContentMarkers appear in the header block codegen tools emit.
var codegenContentMarkers = []string{
	"@graphql-codegen",
	"graphql code generator",
	"this file was automatically generated",
	"do not edit this file",
}

const codegenHeadBytes = 2048

// IsCodegenFile reports whether a TS/JS file looks like generated
// GraphQL codegen output. Path hints win; otherwise the file header is
// checked for generator markers.
func IsCodegenFile(path string, content []byte) bool {
	lowered := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	if !isScriptPath(lowered) {
		return false
	}
	for _, hint := range codegenPathHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}

	head := content
	if len(head) > codegenHeadBytes {
		head = head[:codegenHeadBytes]
	}
	head = bytes.ToLower(head)
	for _, marker := range codegenContentMarkers {
		if bytes.Contains(head, []byte(marker)) {
			return true
		}
	}
	return false
}

func isScriptPath(lowered string) bool {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"} {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}

// extractCodegen harvests `export const XDocument = ...` constants from
// a generated module. Each export becomes a free-form alias, and when
// the operation text is recoverable the operation itself is ingested
// too, so codegen-only repositories still get full records.
func (e *Extractor) extractCodegen(path string, content []byte) {
	e.metrics.CodegenFilesDetected.Add(1)

	src, err := e.parser.ParseFile(path, content)
	if err != nil {
		e.metrics.ParseFailures.Add(1)
		slog.Debug("skipping unparseable codegen module", "path", path, "error", err)
		return
	}
	defer src.Close()
	e.metrics.CodegenFilesParsed.Add(1)

	exports := 0
	walker := parser.NewWalker(map[string]parser.NodeHandler{
		"variable_declarator": func(ctx *parser.WalkContext, node *sitter.Node) bool {
			name := ctx.Text(node.ChildByFieldName("name"))
			if !strings.HasSuffix(name, "Document") || name == "Document" {
				return false
			}
			exports++
			e.ingestCodegenExport(path, name, documentValueText(ctx, node.ChildByFieldName("value")))
			return true
		},
	})
	walker.Walk(&parser.WalkContext{Source: content, FilePath: path}, src.Root())

	e.metrics.CodegenExportsFound.Add(int64(exports))
	observability.CodegenExportsTotal.Add(float64(exports))
}

// documentValueText recovers GraphQL text from a Document export value
// when it is a template form. Pre-parsed AST literals return the raw
// literal text instead, which the literal regexes below understand.
func documentValueText(ctx *parser.WalkContext, value *sitter.Node) string {
	if value == nil {
		return ""
	}

	switch classified := parser.Classify(value, ctx.Source).(type) {
	case *parser.TaggedTemplate:
		return classified.Template
	case *parser.TemplateLit:
		return classified.Text
	case *parser.CallExpr:
		if graphqlTags[classified.CalleeName()] {
			if lit, ok := parser.Classify(classified.FirstArg(), ctx.Source).(*parser.TemplateLit); ok {
				return lit.Text
			}
		}
	}
	return ctx.Text(value)
}

var (
	literalOperationRe = regexp.MustCompile(`"operation"\s*:\s*"(query|mutation|subscription)"`)
	literalNameRe      = regexp.MustCompile(`"kind"\s*:\s*"Name"\s*,\s*"value"\s*:\s*"([A-Za-z_][A-Za-z0-9_]*)"`)
)

// ingestCodegenExport registers a Document export: the alias always,
// plus the operation itself when its definition can be recovered from
// the export value (template text or a serialized AST literal).
func (e *Extractor) ingestCodegenExport(filePath, documentName, valueText string) {
	opName := graphql.TrimAliasSuffix(documentName)
	if opName == "" {
		return
	}

	if ops, err := graphql.ParseDocument(valueText, filePath); err == nil {
		for _, op := range ops {
			e.registry.Ingest(op)
			if op.Name != graphql.AnonymousName {
				e.registry.RegisterAlias(documentName, op.Name)
			}
		}
		return
	}

	op := &graphql.Operation{
		Name:           opName,
		Kind:           graphql.KindQuery,
		DefinitionFile: filePath,
	}
	if m := literalOperationRe.FindStringSubmatch(valueText); m != nil {
		op.Kind = graphql.Kind(m[1])
	}
	if m := literalNameRe.FindStringSubmatch(valueText); m != nil {
		op.Name = m[1]
	}

	e.registry.Ingest(op)
	e.registry.RegisterAlias(documentName, op.Name)
}
