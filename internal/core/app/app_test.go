package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gqlmap/internal/core/config"
	"gqlmap/internal/engine/analyzer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixtureRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, "queries/user.graphql", `
query GetUser($id: ID!) {
	user(id: $id) { id name }
}
`)
	writeFile(t, dir, "src/profile.tsx", `
import { gql, useQuery } from '@apollo/client';

const Query = gql`+"`"+`query GetUser($id: ID!) { user(id: $id) { id name } }`+"`"+`;

export const useUser = (id) => useQuery(Query, { variables: { id } });
`)
	// Dependency trees never count as consumers.
	writeFile(t, dir, "node_modules/pkg/index.ts", `
import { useQuery } from '@apollo/client';
export const x = () => useQuery(GetUserDocument);
`)
	writeFile(t, dir, "README.md", "# fixture")
	return dir
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Roots = []string{dir}
	cfg.Alerts.Terminal = false
	return cfg
}

func TestScanDirectoriesFiltersFiles(t *testing.T) {
	dir := fixtureRepo(t)
	a, err := New(testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	files, err := a.ScanDirectories([]string{dir}, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("files = %v, want graphql + consumer only", files)
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base == "index.ts" || base == "README.md" {
			t.Errorf("unexpected file enumerated: %s", f)
		}
	}
}

func TestScanDirectoriesSkipTests(t *testing.T) {
	dir := fixtureRepo(t)
	writeFile(t, dir, "src/profile.test.tsx", "export {};")
	writeFile(t, dir, "src/__tests__/user.ts", "export {};")

	cfg := testConfig(dir)
	cfg.Scan.SkipTests = true
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	files, err := a.ScanDirectories([]string{dir}, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range files {
		if filepath.Base(f) == "profile.test.tsx" || filepath.Base(f) == "user.ts" {
			t.Errorf("test file enumerated with skip_tests set: %s", f)
		}
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want graphql + consumer only", files)
	}
}

func TestRunOnce(t *testing.T) {
	dir := fixtureRepo(t)
	cfg := testConfig(dir)
	cfg.Output.JSON = filepath.Join(dir, "out", "report.json")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	var seen *analyzer.Result
	a.SetUpdateHandler(func(result *analyzer.Result) { seen = result })

	result, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Operations) != 1 || result.Operations[0].Name != "GetUser" {
		t.Fatalf("operations = %+v", result.Operations)
	}
	if len(result.Operations[0].UsedIn) != 1 {
		t.Errorf("GetUser.UsedIn = %v", result.Operations[0].UsedIn)
	}

	if seen != result || a.LastResult() != result {
		t.Error("update handler / last result not wired")
	}

	data, err := os.ReadFile(cfg.Output.JSON)
	if err != nil {
		t.Fatal(err)
	}
	var report map[string]any
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report["runId"] != result.RunID {
		t.Errorf("report runId = %v", report["runId"])
	}
}

func TestRunOnceSavesHistory(t *testing.T) {
	dir := fixtureRepo(t)
	cfg := testConfig(dir)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "state", "history.db")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(cfg.History.Path); err != nil {
		t.Errorf("history database not created: %v", err)
	}
}
