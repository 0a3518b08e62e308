package registry

import (
	"gqlmap/internal/engine/graphql"
)

// AliasIndex maps every syntactic name that can refer to an operation
// back to its registry key. Four tiers, resolved in priority order:
// exact name, Document suffix, kind/Variables suffix, free-form alias.
// Built once extraction completes; read-only during scanning.
type AliasIndex struct {
	exact    map[string]string
	document map[string]string
	suffixed map[string]string
	freeForm map[string]string
}

func buildAliasIndex(ops map[string]*graphql.Operation, order []string, freeForm map[string]string) *AliasIndex {
	ix := &AliasIndex{
		exact:    make(map[string]string, len(ops)),
		document: make(map[string]string, len(ops)),
		suffixed: make(map[string]string, len(ops)*3),
		freeForm: make(map[string]string),
	}

	for _, key := range order {
		op := ops[key]
		if op.Name == graphql.AnonymousName {
			continue
		}
		ix.exact[op.Name] = key
		ix.document[op.Name+"Document"] = key

		suffix := kindSuffix(op.Kind)
		ix.suffixed[op.Name+suffix] = key
		ix.suffixed[op.Name+suffix+"Variables"] = key

		for alias := range op.Aliases {
			ix.freeForm[alias] = key
		}
	}

	for alias, name := range freeForm {
		if key, ok := ix.exact[name]; ok {
			ix.freeForm[alias] = key
		}
	}
	return ix
}

func kindSuffix(kind graphql.Kind) string {
	switch kind {
	case graphql.KindMutation:
		return "Mutation"
	case graphql.KindSubscription:
		return "Subscription"
	case graphql.KindFragment:
		return "Fragment"
	default:
		return "Query"
	}
}

// Resolve looks the token up tier by tier; the first hit wins.
func (ix *AliasIndex) Resolve(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if key, ok := ix.exact[token]; ok {
		return key, true
	}
	if key, ok := ix.document[token]; ok {
		return key, true
	}
	if key, ok := ix.suffixed[token]; ok {
		return key, true
	}
	if key, ok := ix.freeForm[token]; ok {
		return key, true
	}
	return "", false
}

// IsDocumentToken reports whether the token matches the Document tier.
// Phase 1 of the scanner trusts only these matches.
func (ix *AliasIndex) IsDocumentToken(token string) bool {
	_, ok := ix.document[token]
	return ok
}

// Tokens returns every known token across all tiers, deduplicated.
// This is the name universe the coarse-pass regex is built from.
func (ix *AliasIndex) Tokens() []string {
	seen := make(map[string]struct{}, ix.Size())
	for _, tier := range []map[string]string{ix.exact, ix.document, ix.suffixed, ix.freeForm} {
		for token := range tier {
			seen[token] = struct{}{}
		}
	}
	return graphql.SortedStringSet(seen)
}

// Size is the total token count across tiers, duplicates included.
func (ix *AliasIndex) Size() int {
	return len(ix.exact) + len(ix.document) + len(ix.suffixed) + len(ix.freeForm)
}
