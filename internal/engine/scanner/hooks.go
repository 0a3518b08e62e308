package scanner

import (
	"strings"

	"github.com/gobwas/glob"

	"gqlmap/internal/core/errors"
)

// knownHooks are the GraphQL client hooks matched exactly. Exact
// matching is the precision guarantee: useQueryParams starts with
// useQuery but is not a GraphQL hook and must never count.
var knownHooks = map[string]bool{
	"useQuery":         true,
	"useLazyQuery":     true,
	"useSuspenseQuery": true,
	"useMutation":      true,
	"useSubscription":  true,
	"useFragment":      true,
}

// clientMethods are the direct client entry points checked in
// combination with an object-literal document argument.
var clientMethods = map[string]bool{
	"query":     true,
	"mutate":    true,
	"subscribe": true,
}

// documentKeys are the object-literal properties that carry the
// operation document in a direct client call.
var documentKeys = map[string]bool{
	"query":        true,
	"mutation":     true,
	"subscription": true,
}

type hookMatcher struct {
	extras []glob.Glob
}

func newHookMatcher(extraPatterns []string) (*hookMatcher, error) {
	m := &hookMatcher{}
	for _, pattern := range extraPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid hook pattern "+pattern)
		}
		m.extras = append(m.extras, g)
	}
	return m, nil
}

func (m *hookMatcher) isGraphQLHook(name string) bool {
	if !strings.HasPrefix(name, "use") {
		return false
	}
	if knownHooks[name] {
		return true
	}
	for _, g := range m.extras {
		if g.Match(name) {
			return true
		}
	}
	return false
}
