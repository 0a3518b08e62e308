package resolver

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/engine/registry"
)

// Strategy labels which resolution path produced a hit. Surfaced in
// metrics so precision regressions show up per strategy.
const (
	StrategyTypeArgument = "type_argument"
	StrategySourceSpan   = "source_span"
	StrategyFirstArg     = "first_argument"
	StrategyNone         = "unresolved"
)

// Resolver turns a syntactic reference at a call site into a canonical
// registry key. Strategies run in fixed priority order; the first hit
// wins and later strategies are never consulted.
type Resolver struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// FileScope carries the variable-alias bindings of one consumer file:
// local names bound to operations via `const Query = gql(...)`. Scoped
// per file so identical local names in different files cannot cross.
type FileScope struct {
	VarAliases map[string]string // local binding -> registry key
}

func NewFileScope() *FileScope {
	return &FileScope{VarAliases: make(map[string]string)}
}

func (s *FileScope) Bind(name, operationKey string) {
	if name != "" && operationKey != "" {
		s.VarAliases[name] = operationKey
	}
}

// ResolveCall resolves a hook or client call to an operation key.
// Returns ("", StrategyNone) when nothing matches; that is an expected
// outcome, not an error.
func (r *Resolver) ResolveCall(call *parser.CallExpr, source []byte, scope *FileScope) (string, string) {
	if call == nil {
		return "", StrategyNone
	}

	if key := r.fromTypeArguments(call); key != "" {
		return key, StrategyTypeArgument
	}
	if key := r.fromSourceSpan(call, source); key != "" {
		return key, StrategySourceSpan
	}
	if key := r.fromFirstArgument(call, source, scope); key != "" {
		return key, StrategyFirstArg
	}
	return "", StrategyNone
}

var typeNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

// fromTypeArguments handles useQuery<GetUserQuery>(...): the explicit
// type argument names the operation's result type.
func (r *Resolver) fromTypeArguments(call *parser.CallExpr) string {
	for _, arg := range call.TypeArgs {
		name := typeNameRe.FindString(arg)
		if name == "" {
			continue
		}
		if key := r.lookup(name); key != "" {
			return key
		}
	}
	return ""
}

// spanRe matches `<Name...` directly after the callee. The span slice
// exists because some parse configurations drop generic-argument nodes;
// scraping the raw text recovers them at the cost of some imprecision.
var spanRe = regexp.MustCompile(`^<\s*([A-Za-z_][A-Za-z0-9_]*)\s*[,>]`)

const spanWindow = 96

func (r *Resolver) fromSourceSpan(call *parser.CallExpr, source []byte) string {
	if len(call.TypeArgs) > 0 {
		return ""
	}

	start := call.CalleeEndByte()
	if start >= uint(len(source)) {
		return ""
	}
	end := start + spanWindow
	if end > uint(len(source)) {
		end = uint(len(source))
	}

	m := spanRe.FindSubmatch(source[start:end])
	if m == nil {
		return ""
	}
	return r.lookup(string(m[1]))
}

// fromFirstArgument inspects the call's first argument expression.
func (r *Resolver) fromFirstArgument(call *parser.CallExpr, source []byte, scope *FileScope) string {
	return r.ResolveExpr(call.FirstArg(), source, scope)
}

// ResolveExpr resolves a bare argument expression to an operation key.
// Also used for the document value inside `client.query({ query: X })`.
func (r *Resolver) ResolveExpr(arg *sitter.Node, source []byte, scope *FileScope) string {
	if arg == nil {
		return ""
	}

	switch expr := parser.Classify(arg, source).(type) {
	case *parser.Ident:
		if scope != nil {
			if key, ok := scope.VarAliases[expr.Name]; ok {
				return key
			}
		}
		return r.lookup(expr.Name)

	case *parser.MemberExpr:
		// ns.GetUser -> the property carries the name.
		return r.lookup(expr.Property)

	case *parser.TaggedTemplate:
		return r.fromInlineText(expr.Template)

	case *parser.TemplateLit:
		return r.fromInlineText(expr.Text)

	case *parser.CallExpr:
		// Nested gql(`...`) call.
		if lit, ok := parser.Classify(expr.FirstArg(), source).(*parser.TemplateLit); ok {
			return r.fromInlineText(lit.Text)
		}
	}
	return ""
}

func (r *Resolver) fromInlineText(text string) string {
	name, _, ok := graphql.OperationNameFromText(text)
	if !ok {
		return ""
	}
	if key, ok := r.reg.AliasIndex().Resolve(name); ok {
		return key
	}
	return ""
}

// lookup tries the token as-is against the alias tiers, then with
// conventional suffixes stripped.
func (r *Resolver) lookup(token string) string {
	ix := r.reg.AliasIndex()
	if key, ok := ix.Resolve(token); ok {
		return key
	}
	if trimmed := graphql.TrimAliasSuffix(token); trimmed != token {
		if key, ok := ix.Resolve(trimmed); ok {
			return key
		}
	}
	return ""
}
