package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gqlmap/internal/engine/analyzer"
	"gqlmap/internal/engine/graphql"
)

// WriteJSONReport serializes the run result to the configured path.
func (a *App) WriteJSONReport(result *analyzer.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeArtifact(a.Config.Output.JSON, append(data, '\n'))
}

func writeArtifact(path string, content []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, content, 0644)
}

func (a *App) PrintSummary(result *analyzer.Result, fileCount int, duration time.Duration) {
	if !a.Config.Alerts.Terminal {
		return
	}

	unused := unusedOperations(result.Operations)

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Run %s: %d operations across %d files in %v\n", result.RunID, len(result.Operations), fileCount, duration)

	if len(unused) > 0 {
		fmt.Printf("⚠️  FOUND %d OPERATIONS WITH NO CONSUMERS:\n", len(unused))
		for _, op := range unused {
			fmt.Printf("   %s %s (%s:%d)\n", op.Kind, op.Name, op.DefinitionFile, op.Line)
		}
	} else {
		fmt.Println("✅ Every operation has at least one consumer.")
	}

	if len(result.SSRUsages) > 0 {
		fmt.Printf("🌐 %d operations consumed in server-side loaders:\n", len(result.SSRUsages))
		for _, ssr := range result.SSRUsages {
			fmt.Printf("   %s in %s\n", ssr.Operation, ssr.File)
		}
	}

	cov := result.Coverage
	if cov.ParseFailures > 0 || cov.GraphQLParseFailures > 0 {
		fmt.Printf("❓ Skipped input: %d unparseable source files, %d malformed GraphQL documents\n",
			cov.ParseFailures, cov.GraphQLParseFailures)
	}
	if cov.CombinedRegexSkipped {
		fmt.Println("📊 Alias universe exceeded the regex cap; coarse pass ran degraded.")
	}
	if cov.CodegenFilesDetected > 0 {
		fmt.Printf("📊 Codegen: %d generated modules, %d Document exports\n",
			cov.CodegenFilesDetected, cov.CodegenExportsFound)
	}
	fmt.Println(strings.Repeat("-", 40))

	if a.Config.Alerts.Beep && len(unused) > 0 {
		fmt.Print("\a")
	}
}

func unusedOperations(ops []*graphql.Operation) []*graphql.Operation {
	var unused []*graphql.Operation
	for _, op := range ops {
		if op.Kind == graphql.KindFragment {
			continue
		}
		if len(op.UsedIn) == 0 {
			unused = append(unused, op)
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].Key() < unused[j].Key() })
	return unused
}
