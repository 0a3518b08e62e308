package extract

import (
	"log/slog"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"gqlmap/internal/engine/parser"
)

// graphqlTags are the tag/callee names that mark inline GraphQL.
var graphqlTags = map[string]bool{
	"gql":     true,
	"graphql": true,
}

// extractInline walks a TS/JS file for tagged templates and gql()
// calls. The walker's declarator stack supplies the enclosing variable
// name, so `const Query = gql(...)` binds the alias Query to whatever
// operation the template declares.
func (e *Extractor) extractInline(path string, content []byte) {
	src, err := e.parser.ParseFile(path, content)
	if err != nil {
		e.metrics.ParseFailures.Add(1)
		slog.Debug("skipping unparseable source file", "path", path, "error", err)
		return
	}
	defer src.Close()

	walker := parser.NewWalker(map[string]parser.NodeHandler{
		"tagged_template_expression": e.handleTaggedTemplate,
		"call_expression":            e.handleGraphQLCall,
	})
	walker.Walk(&parser.WalkContext{Source: content, FilePath: path}, src.Root())
}

func (e *Extractor) handleTaggedTemplate(ctx *parser.WalkContext, node *sitter.Node) bool {
	tagged, ok := parser.Classify(node, ctx.Source).(*parser.TaggedTemplate)
	if !ok || tagged.Template == "" {
		return false
	}

	tag, ok := tagged.Tag.(*parser.Ident)
	if !ok || !graphqlTags[tag.Name] {
		return false
	}

	e.ingestTemplate(ctx.FilePath, tagged.Template, ctx.EnclosingDecl(), ctx.Line(node), ctx.Column(node))
	return true
}

// handleGraphQLCall covers the call form: gql(`query ... `).
func (e *Extractor) handleGraphQLCall(ctx *parser.WalkContext, node *sitter.Node) bool {
	call, ok := parser.Classify(node, ctx.Source).(*parser.CallExpr)
	if !ok || !graphqlTags[call.CalleeName()] {
		return false
	}

	arg := call.FirstArg()
	if arg == nil {
		return false
	}

	var text string
	switch classified := parser.Classify(arg, ctx.Source).(type) {
	case *parser.TemplateLit:
		text = classified.Text
	default:
		if arg.Kind() == "string" {
			text = stringLiteralText(ctx.Text(arg))
		}
	}
	if text == "" {
		return false
	}

	e.ingestTemplate(ctx.FilePath, text, ctx.EnclosingDecl(), ctx.Line(node), ctx.Column(node))
	return true
}

func stringLiteralText(raw string) string {
	if len(raw) >= 2 {
		switch raw[0] {
		case '\'', '"':
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}
