package registry

import (
	"strings"
	"sync"

	"gqlmap/internal/engine/graphql"
)

// Registry is the canonical store of operations for one analysis run.
// Extraction populates it, scanning reads it and records usages back.
// Everything is mutex-guarded: scan batches run on multiple goroutines.
type Registry struct {
	mu    sync.Mutex
	ops   map[string]*graphql.Operation // by Operation.Key()
	order []string                      // first-seen insertion order

	// freeForm maps syntactic aliases (codegen export names, gql-bound
	// variable names) to canonical operation names. Aliases can arrive
	// before their operation's definition, so they live here rather
	// than only on the Operation.
	freeForm map[string]string

	index *AliasIndex
}

func New() *Registry {
	return &Registry{
		ops:      make(map[string]*graphql.Operation),
		freeForm: make(map[string]string),
	}
}

// Ingest inserts a candidate or merges it into an existing entry.
// Merge policy: the first-seen candidate's definition metadata wins;
// aliases and usedIn union. Candidates without a name never reach this
// point (the extractor layer drops them).
func (r *Registry) Ingest(candidate *graphql.Operation) {
	if candidate == nil || candidate.Name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil

	candidate.AddDeclarationSite(candidate.DefinitionFile)

	key := candidate.Key()
	existing, ok := r.ops[key]
	if !ok {
		r.ops[key] = candidate
		r.order = append(r.order, key)
		return
	}

	for alias := range candidate.Aliases {
		existing.AddAlias(alias)
	}
	for path := range candidate.UsedIn {
		existing.AddUsage(path)
	}
	for path := range candidate.DeclaredIn {
		existing.AddDeclarationSite(path)
	}
}

// RegisterAlias binds a free-form alias to a canonical operation name.
// The operation does not need to exist yet; codegen exports are often
// seen before the module that declares the operation inline.
func (r *Registry) RegisterAlias(alias, operationName string) {
	alias = strings.TrimSpace(alias)
	operationName = strings.TrimSpace(operationName)
	if alias == "" || operationName == "" || alias == operationName {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil

	r.freeForm[alias] = operationName
	if op, ok := r.ops[operationName]; ok {
		op.AddAlias(alias)
	}
}

// RecordUsage marks filePath as a confirmed consumer of the operation.
func (r *Registry) RecordUsage(operationKey, filePath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[operationKey]
	if !ok {
		return false
	}
	op.AddUsage(filePath)
	return true
}

// Lookup returns the operation stored under key, or nil.
func (r *Registry) Lookup(key string) *graphql.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops[key]
}

// ResolveAlias resolves a syntactic token to its operation via the
// alias index tiers. Returns nil when no tier matches.
func (r *Registry) ResolveAlias(token string) *graphql.Operation {
	key, ok := r.AliasIndex().Resolve(token)
	if !ok {
		return nil
	}
	return r.Lookup(key)
}

// AliasIndex returns the derived index, rebuilding it if the registry
// changed since the last build. The index is immutable once handed out.
func (r *Registry) AliasIndex() *AliasIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		r.index = buildAliasIndex(r.ops, r.order, r.freeForm)
	}
	return r.index
}

// All returns every operation in first-seen order. The order carries no
// meaning; it only keeps serialized output stable for one run.
func (r *Registry) All() []*graphql.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*graphql.Operation, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.ops[key])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}
