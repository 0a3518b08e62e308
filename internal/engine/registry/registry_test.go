package registry

import (
	"testing"

	"gqlmap/internal/engine/graphql"
)

func op(name string, kind graphql.Kind, file string) *graphql.Operation {
	return &graphql.Operation{
		Name:           name,
		Kind:           kind,
		DefinitionFile: file,
		Variables:      []graphql.Variable{{Name: "id", Type: "ID!", Required: true}},
	}
}

func TestIngest_MergeIdempotence(t *testing.T) {
	r := New()

	first := op("GetUser", graphql.KindQuery, "src/queries/user.graphql")
	first.AddUsage("src/pages/a.tsx")

	second := op("GetUser", graphql.KindQuery, "src/gen/graphql.ts")
	second.Variables = nil // later declarations must not overwrite metadata
	second.AddUsage("src/pages/b.tsx")
	second.AddAlias("GetUserDocument")

	r.Ingest(first)
	r.Ingest(second)

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}

	merged := r.Lookup("GetUser")
	if merged.DefinitionFile != "src/queries/user.graphql" {
		t.Errorf("first-seen definition must win, got %q", merged.DefinitionFile)
	}
	if len(merged.Variables) != 1 {
		t.Errorf("first-seen variables must win, got %+v", merged.Variables)
	}
	if _, ok := merged.UsedIn["src/pages/a.tsx"]; !ok {
		t.Error("usedIn union lost first file")
	}
	if _, ok := merged.UsedIn["src/pages/b.tsx"]; !ok {
		t.Error("usedIn union lost second file")
	}
	if _, ok := merged.Aliases["GetUserDocument"]; !ok {
		t.Error("alias union lost codegen alias")
	}
}

func TestIngest_DeclarationSitesUnion(t *testing.T) {
	r := New()
	r.Ingest(op("GetUser", graphql.KindQuery, "src/queries/user.graphql"))
	r.Ingest(op("GetUser", graphql.KindQuery, "src/gen/graphql.ts"))

	merged := r.Lookup("GetUser")
	if !merged.IsDeclaredIn("src/queries/user.graphql") {
		t.Error("first declaration site lost")
	}
	if !merged.IsDeclaredIn("src/gen/graphql.ts") {
		t.Error("later declaration site not merged")
	}
	if merged.IsDeclaredIn("src/pages/profile.tsx") {
		t.Error("non-declaring file reported as declaration site")
	}
}

func TestIngest_AnonymousOperationsDoNotCollide(t *testing.T) {
	r := New()
	a := op(graphql.AnonymousName, graphql.KindQuery, "src/a.tsx")
	a.Line = 10
	b := op(graphql.AnonymousName, graphql.KindQuery, "src/b.tsx")
	b.Line = 3

	r.Ingest(a)
	r.Ingest(b)

	if r.Len() != 2 {
		t.Fatalf("anonymous operations from different sites merged: %d entries", r.Len())
	}
}

func TestResolveAlias_TierPriority(t *testing.T) {
	r := New()
	r.Ingest(op("GetUser", graphql.KindQuery, "user.graphql"))
	r.Ingest(op("UpdateUser", graphql.KindMutation, "user.graphql"))
	r.RegisterAlias("UserQueryDoc", "GetUser")

	tests := []struct {
		token    string
		expected string
	}{
		{"GetUser", "GetUser"},
		{"GetUserDocument", "GetUser"},
		{"GetUserQuery", "GetUser"},
		{"GetUserQueryVariables", "GetUser"},
		{"UpdateUserMutation", "UpdateUser"},
		{"UserQueryDoc", "GetUser"},
	}
	for _, tt := range tests {
		got := r.ResolveAlias(tt.token)
		if got == nil || got.Name != tt.expected {
			t.Errorf("ResolveAlias(%q) = %v, expected %s", tt.token, got, tt.expected)
		}
	}

	if r.ResolveAlias("UseQueryParams") != nil {
		t.Error("unrelated token must not resolve")
	}
	if r.ResolveAlias("") != nil {
		t.Error("empty token must not resolve")
	}
}

func TestRegisterAlias_BeforeIngest(t *testing.T) {
	r := New()
	// Codegen export discovered before the operation definition.
	r.RegisterAlias("GetFollowPageDocument", "GetFollowPage")
	r.Ingest(op("GetFollowPage", graphql.KindQuery, "follow.graphql"))

	got := r.ResolveAlias("GetFollowPageDocument")
	if got == nil || got.Name != "GetFollowPage" {
		t.Fatalf("ResolveAlias = %v", got)
	}
}

func TestRecordUsage(t *testing.T) {
	r := New()
	r.Ingest(op("GetUser", graphql.KindQuery, "user.graphql"))

	if !r.RecordUsage("GetUser", "src/pages/user.tsx") {
		t.Error("expected usage recorded")
	}
	if r.RecordUsage("Missing", "src/pages/user.tsx") {
		t.Error("unknown key must report false")
	}
	if _, ok := r.Lookup("GetUser").UsedIn["src/pages/user.tsx"]; !ok {
		t.Error("usage not stored")
	}
}

func TestAll_FirstSeenOrder(t *testing.T) {
	r := New()
	r.Ingest(op("B", graphql.KindQuery, "b.graphql"))
	r.Ingest(op("A", graphql.KindQuery, "a.graphql"))
	r.Ingest(op("B", graphql.KindQuery, "b2.graphql"))

	all := r.All()
	if len(all) != 2 || all[0].Name != "B" || all[1].Name != "A" {
		t.Errorf("All order = %v", all)
	}
}

func TestAliasIndex_Tokens(t *testing.T) {
	r := New()
	r.Ingest(op("GetUser", graphql.KindQuery, "user.graphql"))
	r.RegisterAlias("Query", "GetUser")

	ix := r.AliasIndex()
	tokens := ix.Tokens()

	want := map[string]bool{
		"GetUser": true, "GetUserDocument": true,
		"GetUserQuery": true, "GetUserQueryVariables": true,
		"Query": true,
	}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
	}

	if !ix.IsDocumentToken("GetUserDocument") {
		t.Error("expected document-tier token")
	}
	if ix.IsDocumentToken("GetUserQuery") {
		t.Error("suffix-tier token must not count as Document")
	}
}
