package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Expr is a closed view over the handful of expression shapes the
// engine cares about. Everything else in the tree stays untyped; call
// sites switch over these variants instead of probing node kinds.
type Expr interface {
	Node() *sitter.Node
}

type Ident struct {
	Name string
	node *sitter.Node
}

type MemberExpr struct {
	ObjectText string
	Property   string
	node       *sitter.Node
}

type CallExpr struct {
	Callee   Expr
	TypeArgs []string
	Args     []*sitter.Node
	node     *sitter.Node
}

type TaggedTemplate struct {
	Tag      Expr
	Template string
	node     *sitter.Node
}

type TemplateLit struct {
	Text string
	node *sitter.Node
}

func (e *Ident) Node() *sitter.Node          { return e.node }
func (e *MemberExpr) Node() *sitter.Node     { return e.node }
func (e *CallExpr) Node() *sitter.Node       { return e.node }
func (e *TaggedTemplate) Node() *sitter.Node { return e.node }
func (e *TemplateLit) Node() *sitter.Node    { return e.node }

// CalleeName returns the short name a call is made under: the
// identifier itself, or the property for member calls (client.query ->
// query).
func (e *CallExpr) CalleeName() string {
	switch callee := e.Callee.(type) {
	case *Ident:
		return callee.Name
	case *MemberExpr:
		return callee.Property
	}
	return ""
}

// CalleeEndByte is where the callee text ends; the source-span fallback
// slices raw text from here to find type arguments the grammar dropped.
func (e *CallExpr) CalleeEndByte() uint {
	if e.Callee == nil || e.Callee.Node() == nil {
		return e.node.StartByte()
	}
	return e.Callee.Node().EndByte()
}

func (e *CallExpr) FirstArg() *sitter.Node {
	if len(e.Args) == 0 {
		return nil
	}
	return e.Args[0]
}

// Classify converts a tree-sitter node into its typed variant, or nil
// for node kinds outside the closed set.
func Classify(node *sitter.Node, source []byte) Expr {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "identifier":
		return &Ident{Name: nodeText(node, source), node: node}

	case "member_expression":
		object := node.ChildByFieldName("object")
		property := node.ChildByFieldName("property")
		return &MemberExpr{
			ObjectText: nodeText(object, source),
			Property:   nodeText(property, source),
			node:       node,
		}

	case "call_expression":
		call := &CallExpr{node: node}
		call.Callee = Classify(node.ChildByFieldName("function"), source)
		call.TypeArgs = typeArguments(node.ChildByFieldName("type_arguments"), source)
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := uint(0); i < args.ChildCount(); i++ {
				child := args.Child(i)
				if child.IsNamed() && child.Kind() != "comment" {
					call.Args = append(call.Args, child)
				}
			}
		}
		return call

	case "tagged_template_expression":
		tag := node.ChildByFieldName("function")
		if tag == nil && node.ChildCount() > 0 {
			tag = node.Child(0)
		}
		template := node.ChildByFieldName("arguments")
		if template == nil {
			template = childOfKind(node, "template_string")
		}
		return &TaggedTemplate{
			Tag:      Classify(tag, source),
			Template: TemplateText(template, source),
			node:     node,
		}

	case "template_string":
		return &TemplateLit{Text: TemplateText(node, source), node: node}

	case "parenthesized_expression":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.IsNamed() {
				return Classify(child, source)
			}
		}
	}
	return nil
}

// TemplateText returns the template literal body without backticks.
// Interpolation placeholders are kept as-is.
func TemplateText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	text := nodeText(node, source)
	text = strings.TrimPrefix(text, "`")
	return strings.TrimSuffix(text, "`")
}

func typeArguments(node *sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	var args []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			args = append(args, nodeText(child, source))
		}
	}
	return args
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}
