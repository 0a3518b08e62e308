package graphql

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"gqlmap/internal/core/errors"
)

// MaxSelectionDepth bounds recursion over selection sets so cyclic or
// adversarial documents cannot blow the stack.
const MaxSelectionDepth = 5

// ParseDocument parses GraphQL text into operations and fragments.
// One document may declare several definitions; all are returned.
func ParseDocument(text, filePath string) ([]*Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: filePath, Input: text})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailure, "parse graphql document")
	}

	ops := make([]*Operation, 0, len(doc.Operations)+len(doc.Fragments))
	for _, def := range doc.Operations {
		ops = append(ops, fromOperation(def, filePath))
	}
	for _, frag := range doc.Fragments {
		ops = append(ops, fromFragment(frag, filePath))
	}
	return ops, nil
}

func fromOperation(def *ast.OperationDefinition, filePath string) *Operation {
	op := &Operation{
		Name:           AnonymousName,
		Kind:           kindOf(def.Operation),
		DefinitionFile: filePath,
	}
	if def.Name != "" {
		op.Name = def.Name
	}
	if def.Position != nil {
		op.Line = def.Position.Line
		op.Column = def.Position.Column
	}

	for _, v := range def.VariableDefinitions {
		op.Variables = append(op.Variables, Variable{
			Name:     v.Variable,
			Type:     v.Type.String(),
			Required: v.Type.NonNull,
		})
	}

	frags := make(map[string]struct{})
	op.Fields = buildSelection(def.SelectionSet, 0, frags)
	op.FragmentRefs = SortedStringSet(frags)
	return op
}

func fromFragment(def *ast.FragmentDefinition, filePath string) *Operation {
	op := &Operation{
		Name:           def.Name,
		Kind:           KindFragment,
		DefinitionFile: filePath,
	}
	if def.Position != nil {
		op.Line = def.Position.Line
		op.Column = def.Position.Column
	}

	frags := make(map[string]struct{})
	op.Fields = buildSelection(def.SelectionSet, 0, frags)
	op.FragmentRefs = SortedStringSet(frags)
	return op
}

func kindOf(op ast.Operation) Kind {
	switch op {
	case ast.Mutation:
		return KindMutation
	case ast.Subscription:
		return KindSubscription
	default:
		return KindQuery
	}
}

func buildSelection(set ast.SelectionSet, depth int, frags map[string]struct{}) []Field {
	if depth >= MaxSelectionDepth {
		return nil
	}

	var fields []Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			fields = append(fields, Field{
				Name:       s.Name,
				ArgSummary: argSummary(s.Arguments),
				Children:   buildSelection(s.SelectionSet, depth+1, frags),
			})
		case *ast.FragmentSpread:
			frags[s.Name] = struct{}{}
		case *ast.InlineFragment:
			// Inline fragments flatten into the enclosing level.
			fields = append(fields, buildSelection(s.SelectionSet, depth, frags)...)
		}
	}
	return fields
}

func argSummary(args ast.ArgumentList) string {
	if len(args) == 0 {
		return ""
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		names = append(names, a.Name)
	}
	return "(" + strings.Join(names, ", ") + ")"
}

var operationHeaderRe = regexp.MustCompile(`\b(query|mutation|subscription|fragment)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// OperationNameFromText extracts the first definition name from raw
// GraphQL text. It prefers a full parse and falls back to a header match
// for text with interpolation placeholders a strict parser rejects.
func OperationNameFromText(text string) (string, Kind, bool) {
	if ops, err := ParseDocument(text, ""); err == nil {
		for _, op := range ops {
			if op.Name != AnonymousName {
				return op.Name, op.Kind, true
			}
		}
	}

	m := operationHeaderRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[2], Kind(m[1]), true
}

var aliasSuffixes = []string{"Document", "Variables", "Query", "Mutation", "Subscription", "Fragment"}

// TrimAliasSuffix strips conventional codegen suffixes from a syntactic
// token, e.g. GetUserQueryVariables -> GetUser. At most one pass per
// suffix so a legitimate name like SearchQuery is reduced only once.
func TrimAliasSuffix(token string) string {
	token = strings.TrimSpace(token)
	for _, suffix := range aliasSuffixes {
		if trimmed := strings.TrimSuffix(token, suffix); trimmed != token && trimmed != "" {
			token = trimmed
		}
	}
	return token
}

// SortedStringSet flattens a set of names into a sorted slice.
func SortedStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func sortedSet(set map[string]struct{}) []string {
	return SortedStringSet(set)
}
