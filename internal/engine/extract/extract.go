package extract

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gqlmap/internal/engine/coverage"
	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/engine/registry"
	"gqlmap/internal/shared/observability"
)

// SourceKind identifies where an operation candidate came from.
type SourceKind string

const (
	KindGraphQLFile    SourceKind = "graphql-file"
	KindInlineTemplate SourceKind = "inline-template"
	KindCodegenExport  SourceKind = "codegen-export"
)

// RawSource is one raw operation-source record. Collaborators that do
// their own extraction can feed these straight into Ingest.
type RawSource struct {
	Kind              SourceKind
	FilePath          string
	Text              string
	EnclosingVariable string // inline-template only
	DocumentName      string // codegen-export only
}

// Extractor turns repository files into registry entries and alias
// bindings. It never fails a run: malformed inputs are dropped and
// counted.
type Extractor struct {
	parser   *parser.Parser
	registry *registry.Registry
	metrics  *coverage.Metrics
}

func New(p *parser.Parser, reg *registry.Registry, metrics *coverage.Metrics) *Extractor {
	return &Extractor{parser: p, registry: reg, metrics: metrics}
}

// ExtractFile routes one repository file to the matching extractor.
// Unsupported files are ignored.
func (e *Extractor) ExtractFile(path string, content []byte) {
	start := time.Now()

	switch {
	case isGraphQLPath(path):
		e.extractGraphQLFile(path, string(content))
		observability.ExtractionDuration.WithLabelValues(string(KindGraphQLFile)).Observe(time.Since(start).Seconds())

	case IsCodegenFile(path, content):
		e.extractCodegen(path, content)
		observability.ExtractionDuration.WithLabelValues(string(KindCodegenExport)).Observe(time.Since(start).Seconds())

	case e.parser.IsSupportedPath(path):
		e.extractInline(path, content)
		observability.ExtractionDuration.WithLabelValues(string(KindInlineTemplate)).Observe(time.Since(start).Seconds())
	}
}

// Ingest accepts a pre-extracted raw source record.
func (e *Extractor) Ingest(src RawSource) {
	switch src.Kind {
	case KindGraphQLFile:
		e.extractGraphQLFile(src.FilePath, src.Text)

	case KindInlineTemplate:
		e.ingestTemplate(src.FilePath, src.Text, src.EnclosingVariable, 0, 0)

	case KindCodegenExport:
		e.metrics.CodegenExportsFound.Add(1)
		e.ingestCodegenExport(src.FilePath, src.DocumentName, src.Text)

	default:
		slog.Debug("dropping raw source with unknown kind", "kind", src.Kind, "path", src.FilePath)
	}
}

// ingestTemplate parses inline GraphQL text and registers its
// operations, binding the enclosing variable name as an alias. Text
// with interpolation placeholders falls back to header extraction so a
// spread fragment does not hide the operation.
func (e *Extractor) ingestTemplate(filePath, text, enclosingVar string, line, column int) {
	ops, err := graphql.ParseDocument(text, filePath)
	if err != nil {
		name, kind, ok := graphql.OperationNameFromText(text)
		if !ok {
			e.metrics.GraphQLParseFailures.Add(1)
			observability.GraphQLParseFailuresTotal.Inc()
			slog.Debug("dropping malformed inline graphql", "path", filePath, "error", err)
			return
		}
		ops = []*graphql.Operation{{
			Name:           name,
			Kind:           kind,
			DefinitionFile: filePath,
			Line:           line,
			Column:         column,
		}}
	}

	for _, op := range ops {
		if op.Line == 0 {
			op.Line = line
			op.Column = column
		}
		e.registry.Ingest(op)
		if enclosingVar != "" && op.Name != graphql.AnonymousName {
			e.registry.RegisterAlias(enclosingVar, op.Name)
		}
	}
}

func isGraphQLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphql", ".gql", ".graphqls":
		return true
	}
	return false
}
