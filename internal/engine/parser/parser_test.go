package parser

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func parse(t *testing.T, path, content string) *Source {
	t.Helper()
	p := NewParser()
	src, err := p.ParseFile(path, []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(src.Close)
	return src
}

func firstOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstOfKind(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseFile_LanguageDetection(t *testing.T) {
	p := NewParser()
	tests := []struct {
		path     string
		expected string
	}{
		{"src/app.ts", "typescript"},
		{"src/page.tsx", "tsx"},
		{"src/util.js", "javascript"},
		{"src/util.mjs", "javascript"},
	}
	for _, tt := range tests {
		src, err := p.ParseFile(tt.path, []byte("const a = 1;"))
		if err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		if src.Language != tt.expected {
			t.Errorf("%s: language = %q, expected %q", tt.path, src.Language, tt.expected)
		}
		src.Close()
	}

	if _, err := p.ParseFile("styles.css", []byte("")); err == nil {
		t.Error("expected unsupported language error")
	}
	if p.IsSupportedPath("README.md") {
		t.Error("markdown must not be supported")
	}
}

func TestClassify_CallExpression(t *testing.T) {
	src := parse(t, "app.ts", `useQuery<GetUserQuery>(GetUserDocument, { skip: true });`)
	node := firstOfKind(src.Root(), "call_expression")
	if node == nil {
		t.Fatal("no call_expression found")
	}

	expr := Classify(node, src.Content)
	call, ok := expr.(*CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", expr)
	}
	if call.CalleeName() != "useQuery" {
		t.Errorf("callee = %q", call.CalleeName())
	}
	if len(call.TypeArgs) != 1 || call.TypeArgs[0] != "GetUserQuery" {
		t.Errorf("typeArgs = %v", call.TypeArgs)
	}
	if len(call.Args) != 2 {
		t.Fatalf("args = %d", len(call.Args))
	}

	first := Classify(call.FirstArg(), src.Content)
	ident, ok := first.(*Ident)
	if !ok || ident.Name != "GetUserDocument" {
		t.Errorf("first arg = %#v", first)
	}
}

func TestClassify_MemberCall(t *testing.T) {
	src := parse(t, "app.ts", `client.query({ query: GetUserDocument });`)
	node := firstOfKind(src.Root(), "call_expression")

	call := Classify(node, src.Content).(*CallExpr)
	member, ok := call.Callee.(*MemberExpr)
	if !ok {
		t.Fatalf("expected MemberExpr callee, got %T", call.Callee)
	}
	if member.ObjectText != "client" || member.Property != "query" {
		t.Errorf("member = %+v", member)
	}
	if call.CalleeName() != "query" {
		t.Errorf("calleeName = %q", call.CalleeName())
	}
}

func TestClassify_TaggedTemplate(t *testing.T) {
	src := parse(t, "app.ts", "const q = gql`query GetUser { user { id } }`;")
	node := firstOfKind(src.Root(), "tagged_template_expression")
	if node == nil {
		t.Fatal("no tagged_template_expression found")
	}

	tagged := Classify(node, src.Content).(*TaggedTemplate)
	tag, ok := tagged.Tag.(*Ident)
	if !ok || tag.Name != "gql" {
		t.Errorf("tag = %#v", tagged.Tag)
	}
	if tagged.Template != "query GetUser { user { id } }" {
		t.Errorf("template = %q", tagged.Template)
	}
}

func TestWalker_DeclaratorContext(t *testing.T) {
	src := parse(t, "app.ts", "const Query = gql`query GetFollowPage { follows { id } }`;")

	var enclosing string
	walker := NewWalker(map[string]NodeHandler{
		"tagged_template_expression": func(ctx *WalkContext, node *sitter.Node) bool {
			enclosing = ctx.EnclosingDecl()
			return false
		},
	})
	ctx := &WalkContext{Source: src.Content, FilePath: src.Path}
	walker.Walk(ctx, src.Root())

	if enclosing != "Query" {
		t.Errorf("enclosing declarator = %q, expected Query", enclosing)
	}
	if len(ctx.DeclStack) != 0 {
		t.Errorf("decl stack not unwound: %v", ctx.DeclStack)
	}
}
