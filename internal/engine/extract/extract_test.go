package extract

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"gqlmap/internal/engine/coverage"
	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/engine/registry"
	"gqlmap/internal/shared/observability"
)

func newExtractor() (*Extractor, *registry.Registry, *coverage.Metrics) {
	reg := registry.New()
	metrics := &coverage.Metrics{}
	return New(parser.NewParser(), reg, metrics), reg, metrics
}

func TestExtractGraphQLFile(t *testing.T) {
	e, reg, _ := newExtractor()
	e.ExtractFile("src/queries/user.graphql", []byte(`
		query GetUser($id: ID!) { user(id: $id) { name } }
		fragment UserFields on User { id name }
	`))

	if reg.Len() != 2 {
		t.Fatalf("expected 2 definitions, got %d", reg.Len())
	}
	op := reg.Lookup("GetUser")
	if op == nil || op.Kind != graphql.KindQuery {
		t.Fatalf("GetUser = %+v", op)
	}
	if frag := reg.Lookup("UserFields"); frag == nil || frag.Kind != graphql.KindFragment {
		t.Fatalf("UserFields = %+v", frag)
	}
}

func TestExtractGraphQLFile_MalformedDropsSilently(t *testing.T) {
	e, reg, metrics := newExtractor()
	before := testutil.ToFloat64(observability.GraphQLParseFailuresTotal)

	e.ExtractFile("src/broken.graphql", []byte(`query Broken { user {`))

	if reg.Len() != 0 {
		t.Error("malformed file must not produce operations")
	}
	if metrics.GraphQLParseFailures.Load() != 1 {
		t.Errorf("graphqlParseFailures = %d", metrics.GraphQLParseFailures.Load())
	}
	if got := testutil.ToFloat64(observability.GraphQLParseFailuresTotal) - before; got != 1 {
		t.Errorf("prometheus mirror delta = %v, want 1", got)
	}
}

func TestExtractInline_TaggedTemplate(t *testing.T) {
	e, reg, _ := newExtractor()
	e.ExtractFile("src/hooks/useFollows.ts", []byte(
		"const Query = gql`query GetFollowPage { follows { id } }`;\n"))

	op := reg.Lookup("GetFollowPage")
	if op == nil {
		t.Fatal("operation not extracted")
	}
	if op.DefinitionFile != "src/hooks/useFollows.ts" {
		t.Errorf("definitionFile = %q", op.DefinitionFile)
	}
	if op.Line == 0 {
		t.Error("expected declaration line recorded")
	}

	// The local binding must resolve to the operation, not vice versa.
	if got := reg.ResolveAlias("Query"); got == nil || got.Name != "GetFollowPage" {
		t.Errorf("ResolveAlias(Query) = %v", got)
	}
}

func TestExtractInline_GqlCallForm(t *testing.T) {
	e, reg, _ := newExtractor()
	e.ExtractFile("src/api.ts", []byte(
		"const updateUser = graphql(`mutation UpdateUser { updateUser { id } }`);\n"))

	if op := reg.Lookup("UpdateUser"); op == nil || op.Kind != graphql.KindMutation {
		t.Fatalf("UpdateUser = %+v", op)
	}
	if got := reg.ResolveAlias("updateUser"); got == nil || got.Name != "UpdateUser" {
		t.Errorf("ResolveAlias(updateUser) = %v", got)
	}
}

func TestExtractInline_InterpolatedFragmentFallback(t *testing.T) {
	e, reg, _ := newExtractor()
	e.ExtractFile("src/api.ts", []byte(
		"const q = gql`query GetUser { user { ...${UserFields} } }`;\n"))

	// Strict parsing fails on the placeholder; the header fallback must
	// still register the operation under its real name.
	if op := reg.Lookup("GetUser"); op == nil {
		t.Fatal("interpolated template lost its operation")
	}
}

func TestExtractInline_IgnoresUnrelatedTemplates(t *testing.T) {
	e, reg, _ := newExtractor()
	e.ExtractFile("src/styles.ts", []byte(
		"const css = styled`color: red;`;\nconst msg = `query looking string`;\n"))

	if reg.Len() != 0 {
		t.Errorf("unrelated templates produced %d operations", reg.Len())
	}
}

func TestIsCodegenFile(t *testing.T) {
	tests := []struct {
		path     string
		content  string
		expected bool
	}{
		{"src/__generated__/graphql.ts", "", true},
		{"src/generated/operations.tsx", "", true},
		{"src/gen.ts", "/* eslint-disable */\n// Generated by GraphQL Code Generator\n", true},
		{"src/gen.ts", "// @graphql-codegen output\n", true},
		{"src/pages/user.tsx", "import { useQuery } from '@apollo/client';\n", false},
		{"src/__generated__/schema.json", "", false},
	}
	for _, tt := range tests {
		if got := IsCodegenFile(tt.path, []byte(tt.content)); got != tt.expected {
			t.Errorf("IsCodegenFile(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestExtractCodegen_TemplateExport(t *testing.T) {
	e, reg, metrics := newExtractor()
	e.ExtractFile("src/__generated__/graphql.ts", []byte(
		"export const GetUserDocument = gql`query GetUser($id: ID!) { user(id: $id) { name } }`;\n"))

	op := reg.Lookup("GetUser")
	if op == nil {
		t.Fatal("operation not ingested from codegen export")
	}
	if got := reg.ResolveAlias("GetUserDocument"); got == nil || got.Name != "GetUser" {
		t.Errorf("ResolveAlias(GetUserDocument) = %v", got)
	}
	if metrics.CodegenFilesDetected.Load() != 1 || metrics.CodegenFilesParsed.Load() != 1 {
		t.Errorf("codegen counters = %+v", metrics.Snapshot())
	}
	if metrics.CodegenExportsFound.Load() != 1 {
		t.Errorf("codegenExportsFound = %d", metrics.CodegenExportsFound.Load())
	}
}

func TestExtractCodegen_ASTLiteralExport(t *testing.T) {
	e, reg, _ := newExtractor()
	content := `/* eslint-disable */
export const UpdateUserDocument = {"kind":"Document","definitions":[{"kind":"OperationDefinition","operation":"mutation","name":{"kind":"Name","value":"UpdateUser"}}]} as unknown as DocumentNode;
`
	e.ExtractFile("src/__generated__/graphql.ts", []byte(content))

	op := reg.Lookup("UpdateUser")
	if op == nil {
		t.Fatal("operation not recovered from AST literal")
	}
	if op.Kind != graphql.KindMutation {
		t.Errorf("kind = %q", op.Kind)
	}
	if got := reg.ResolveAlias("UpdateUserDocument"); got == nil || got.Name != "UpdateUser" {
		t.Errorf("ResolveAlias(UpdateUserDocument) = %v", got)
	}
}

func TestIngest_RawSources(t *testing.T) {
	e, reg, _ := newExtractor()

	e.Ingest(RawSource{Kind: KindGraphQLFile, FilePath: "u.graphql", Text: `query GetUser { user { id } }`})
	e.Ingest(RawSource{Kind: KindInlineTemplate, FilePath: "a.ts", Text: `query GetFollowPage { follows { id } }`, EnclosingVariable: "Query"})
	e.Ingest(RawSource{Kind: KindCodegenExport, FilePath: "gen.ts", DocumentName: "LikeStoryDocument", Text: `mutation LikeStory { like { id } }`})
	e.Ingest(RawSource{Kind: "bogus", FilePath: "x.ts"})

	if reg.Len() != 3 {
		t.Fatalf("expected 3 operations, got %d", reg.Len())
	}
	if got := reg.ResolveAlias("Query"); got == nil || got.Name != "GetFollowPage" {
		t.Errorf("alias Query = %v", got)
	}
	if got := reg.ResolveAlias("LikeStoryDocument"); got == nil || got.Name != "LikeStory" {
		t.Errorf("alias LikeStoryDocument = %v", got)
	}
}
