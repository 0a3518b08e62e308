package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(100*time.Millisecond, []string{"node_modules"}, []string{"*.stories.tsx"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	queryFile := filepath.Join(tmpDir, "user.graphql")
	os.WriteFile(queryFile, []byte("query GetUser { user { id } }"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == queryFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s in changed files %v", queryFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for file change event")
	}

	// Non-source files never trigger a rescan.
	readme := filepath.Join(tmpDir, "README.md")
	os.WriteFile(readme, []byte("docs"), 0644)

	// Neither do excluded file patterns.
	stories := filepath.Join(tmpDir, "card.stories.tsx")
	os.WriteFile(stories, []byte("export default {}"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "README.md" || base == "card.stories.tsx" {
				t.Errorf("irrelevant file %s triggered event", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "hooks")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "useUser.ts")
	if err := os.WriteFile(subFile, []byte("export const x = 1"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}
