package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gqlmap/internal/core/config"
	"gqlmap/internal/engine/analyzer"
	"gqlmap/internal/engine/graphql"
)

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.JSON = filepath.Join(dir, "nested", "report.json")

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	op := &graphql.Operation{Name: "GetUser", Kind: graphql.KindQuery, DefinitionFile: "user.graphql"}
	op.AddUsage("src/profile.tsx")
	result := &analyzer.Result{
		RunID:      "run-1",
		Operations: []*graphql.Operation{op},
	}

	require.NoError(t, a.WriteJSONReport(result))

	data, err := os.ReadFile(cfg.Output.JSON)
	require.NoError(t, err)

	var report struct {
		RunID      string `json:"runId"`
		Operations []struct {
			Name   string   `json:"name"`
			Type   string   `json:"type"`
			UsedIn []string `json:"usedIn"`
		} `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Operations, 1)
	require.Equal(t, "GetUser", report.Operations[0].Name)
	require.Equal(t, []string{"src/profile.tsx"}, report.Operations[0].UsedIn)
}

func TestUnusedOperations(t *testing.T) {
	used := &graphql.Operation{Name: "GetUser", Kind: graphql.KindQuery}
	used.AddUsage("src/profile.tsx")
	orphanB := &graphql.Operation{Name: "B", Kind: graphql.KindMutation}
	orphanA := &graphql.Operation{Name: "A", Kind: graphql.KindQuery}
	frag := &graphql.Operation{Name: "UserFields", Kind: graphql.KindFragment}

	unused := unusedOperations([]*graphql.Operation{used, orphanB, orphanA, frag})

	require.Len(t, unused, 2)
	require.Equal(t, "A", unused[0].Name)
	require.Equal(t, "B", unused[1].Name)
}
