package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a GraphQL definition.
type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
	KindFragment     Kind = "fragment"
)

// AnonymousName is the display name for unnamed operations. Unnamed
// operations are still keyed individually (see Operation.Key) so two
// anonymous queries in different files never merge.
const AnonymousName = "anonymous"

type Variable struct {
	Name     string
	Type     string
	Required bool
}

type Field struct {
	Name       string
	ArgSummary string
	Children   []Field
}

// Operation is a canonical GraphQL query/mutation/subscription/fragment
// declaration merged from however many source sites declared it.
type Operation struct {
	Name           string
	Kind           Kind
	DefinitionFile string
	Line           int
	Column         int
	Variables      []Variable
	Fields         []Field
	FragmentRefs   []string
	Aliases        map[string]struct{}
	UsedIn         map[string]struct{}

	// DeclaredIn holds every file that declares this operation: the
	// first-seen DefinitionFile plus any later declaration site merged
	// in (codegen modules re-declaring a .graphql operation). Declaring
	// a document is not consuming it, so these files never count as
	// usage sites.
	DeclaredIn map[string]struct{}
}

// Key is the registry identity. Named operations key by name; anonymous
// ones by declaration site so they never collide with each other.
func (o *Operation) Key() string {
	if o.Name != AnonymousName {
		return o.Name
	}
	return fmt.Sprintf("%s@%s:%d", AnonymousName, o.DefinitionFile, o.Line)
}

func (o *Operation) AddAlias(alias string) {
	alias = strings.TrimSpace(alias)
	if alias == "" || alias == o.Name {
		return
	}
	if o.Aliases == nil {
		o.Aliases = make(map[string]struct{})
	}
	o.Aliases[alias] = struct{}{}
}

func (o *Operation) AddDeclarationSite(filePath string) {
	if filePath == "" {
		return
	}
	if o.DeclaredIn == nil {
		o.DeclaredIn = make(map[string]struct{})
	}
	o.DeclaredIn[filePath] = struct{}{}
}

func (o *Operation) IsDeclaredIn(filePath string) bool {
	_, ok := o.DeclaredIn[filePath]
	return ok
}

func (o *Operation) AddUsage(filePath string) {
	if filePath == "" {
		return
	}
	if o.UsedIn == nil {
		o.UsedIn = make(map[string]struct{})
	}
	o.UsedIn[filePath] = struct{}{}
}

// ReturnType reports the conventional codegen result type name for the
// operation, e.g. GetUserQuery for query GetUser.
func (o *Operation) ReturnType() string {
	if o.Name == AnonymousName {
		return ""
	}
	switch o.Kind {
	case KindQuery:
		return o.Name + "Query"
	case KindMutation:
		return o.Name + "Mutation"
	case KindSubscription:
		return o.Name + "Subscription"
	default:
		return o.Name + "Fragment"
	}
}

func (o *Operation) VariableNames() []string {
	names := make([]string, 0, len(o.Variables))
	for _, v := range o.Variables {
		names = append(names, v.Name)
	}
	return names
}

type variableJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type fieldJSON struct {
	Name     string      `json:"name"`
	Args     string      `json:"args,omitempty"`
	Children []fieldJSON `json:"children,omitempty"`
}

type operationJSON struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	FilePath      string         `json:"filePath"`
	Variables     []variableJSON `json:"variables"`
	ReturnType    string         `json:"returnType"`
	Fragments     []string       `json:"fragments"`
	Fields        []fieldJSON    `json:"fields"`
	UsedIn        []string       `json:"usedIn"`
	VariableNames []string       `json:"variableNames"`
}

func fieldsJSON(fields []Field) []fieldJSON {
	out := make([]fieldJSON, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldJSON{
			Name:     f.Name,
			Args:     f.ArgSummary,
			Children: fieldsJSON(f.Children),
		})
	}
	return out
}

// MarshalJSON renders the downstream report shape. UsedIn is a set
// internally; it serializes sorted so output is stable across runs.
func (o *Operation) MarshalJSON() ([]byte, error) {
	vars := make([]variableJSON, 0, len(o.Variables))
	for _, v := range o.Variables {
		vars = append(vars, variableJSON{Name: v.Name, Type: v.Type, Required: v.Required})
	}

	return json.Marshal(operationJSON{
		Name:          o.Name,
		Type:          string(o.Kind),
		FilePath:      o.DefinitionFile,
		Variables:     vars,
		ReturnType:    o.ReturnType(),
		Fragments:     sortedCopy(o.FragmentRefs),
		Fields:        fieldsJSON(o.Fields),
		UsedIn:        sortedSet(o.UsedIn),
		VariableNames: o.VariableNames(),
	})
}
