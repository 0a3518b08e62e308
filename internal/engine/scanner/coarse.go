package scanner

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
)

// defaultIndicators gate both scan phases: a file containing none of
// these substrings cannot consume GraphQL and is never parsed.
var defaultIndicators = []string{
	"gql",
	"graphql",
	"useQuery",
	"useMutation",
	"useSubscription",
	"useFragment",
	"Document",
	".query(",
	".mutate(",
}

// coarseMatcher is the Phase-1 combined alternation regex over the
// whole alias universe. Above the cap the regex is not built at all;
// compilation and backtracking cost grows too fast with the
// alternation count, and Phase 2 alone still produces correct results.
type coarseMatcher struct {
	re      *regexp.Regexp
	skipped bool
}

func newCoarseMatcher(tokens []string, aliasCap int) *coarseMatcher {
	if len(tokens) == 0 || len(tokens) > aliasCap {
		return &coarseMatcher{skipped: len(tokens) > aliasCap}
	}

	// Longest first so overlapping names never shadow each other:
	// GetUserDocument must match before GetUser does.
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	escaped := make([]string, len(sorted))
	for i, token := range sorted {
		escaped[i] = regexp.QuoteMeta(token)
	}

	return &coarseMatcher{
		re: regexp.MustCompile(`\b(` + strings.Join(escaped, "|") + `)\b`),
	}
}

// Match returns the distinct alias tokens appearing in content.
func (m *coarseMatcher) Match(content []byte) []string {
	if m.re == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var tokens []string
	for _, hit := range m.re.FindAll(content, -1) {
		token := string(hit)
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

func containsIndicator(content []byte, indicators []string) bool {
	for _, indicator := range indicators {
		if bytes.Contains(content, []byte(indicator)) {
			return true
		}
	}
	return false
}
