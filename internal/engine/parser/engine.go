package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node during a walk.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *WalkContext, node *sitter.Node) bool

// WalkContext carries shared state for one file's traversal. DeclStack
// holds the names of enclosing variable declarators so handlers can
// bind tagged templates found inside `const Query = gql(...)` to their
// local binding name.
type WalkContext struct {
	Source    []byte
	FilePath  string
	DeclStack []string
}

func (c *WalkContext) Text(node *sitter.Node) string {
	return nodeText(node, c.Source)
}

func (c *WalkContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (c *WalkContext) Column(node *sitter.Node) int {
	return int(node.StartPosition().Column) + 1
}

// EnclosingDecl is the innermost variable declarator name, or "".
func (c *WalkContext) EnclosingDecl() string {
	if len(c.DeclStack) == 0 {
		return ""
	}
	return c.DeclStack[len(c.DeclStack)-1]
}

// Walker dispatches node handlers by kind while maintaining declarator
// context.
type Walker struct {
	handlers map[string]NodeHandler
}

func NewWalker(handlers map[string]NodeHandler) *Walker {
	return &Walker{handlers: handlers}
}

func (w *Walker) Walk(ctx *WalkContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if node.Kind() == "variable_declarator" {
		name := ctx.Text(node.ChildByFieldName("name"))
		ctx.DeclStack = append(ctx.DeclStack, name)
		defer func() {
			ctx.DeclStack = ctx.DeclStack[:len(ctx.DeclStack)-1]
		}()
	}

	stop := false
	if handler, ok := w.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop {
		for i := uint(0); i < node.ChildCount(); i++ {
			w.Walk(ctx, node.Child(i))
		}
	}
}
