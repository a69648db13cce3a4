package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/jward/taproot/internal/symtab"
)

// ParseFile parses Ruby source into a decorated File.
func ParseFile(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(ruby.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	tr := &translator{path: path, src: src}
	nodes := tr.stmts(tree.RootNode())
	return newFile(path, src, nodes), nil
}

// translator lowers the tree-sitter CST into the resolver's AST.
type translator struct {
	path string
	src  []byte
}

func (tr *translator) loc(n *sitter.Node) symtab.Loc {
	return symtab.Loc{File: tr.path, Start: int(n.StartByte()), End: int(n.EndByte())}
}

func (tr *translator) text(n *sitter.Node) string {
	return n.Content(tr.src)
}

// stmts translates all named children of n, skipping comments and
// dropping forms with nothing the resolver can see.
func (tr *translator) stmts(n *sitter.Node) []Node {
	if n == nil {
		return nil
	}
	var out []Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if node := tr.node(child); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// node translates a single CST node, or returns nil when the node and
// everything under it is irrelevant to resolution.
func (tr *translator) node(n *sitter.Node) Node {
	switch n.Type() {
	case "class":
		return tr.classDef(n)
	case "module":
		return tr.moduleDef(n)
	case "method":
		return tr.methodDef(n, false)
	case "singleton_method":
		return tr.methodDef(n, true)
	case "assignment", "operator_assignment":
		return tr.assignment(n)
	case "call":
		return tr.call(n)
	case "identifier":
		return &Ident{Name: tr.text(n), Span: tr.loc(n)}
	case "instance_variable":
		return &VarRef{Name: tr.text(n), Kind: VarInstance, Span: tr.loc(n)}
	case "class_variable":
		return &VarRef{Name: tr.text(n), Kind: VarClass, Span: tr.loc(n)}
	case "constant", "scope_resolution":
		if ref := tr.constantRef(n); ref != nil {
			return ref
		}
		return tr.other(n)
	case "self":
		return &SelfRef{Span: tr.loc(n)}
	case "integer":
		return &Literal{ClassName: "Integer", Span: tr.loc(n)}
	case "float":
		return &Literal{ClassName: "Float", Span: tr.loc(n)}
	case "string":
		return &Literal{ClassName: "String", Span: tr.loc(n)}
	case "simple_symbol", "symbol":
		return &Literal{ClassName: "Symbol", Span: tr.loc(n)}
	case "true":
		return &Literal{ClassName: "TrueClass", Span: tr.loc(n)}
	case "false":
		return &Literal{ClassName: "FalseClass", Span: tr.loc(n)}
	case "nil":
		return &Literal{ClassName: "NilClass", Span: tr.loc(n)}
	case "comment":
		return nil
	default:
		return tr.other(n)
	}
}

// other preserves an unanalyzed form, keeping translated children so the
// resolver still visits references nested inside it.
func (tr *translator) other(n *sitter.Node) Node {
	children := tr.stmts(n)
	if len(children) == 0 {
		return nil
	}
	return &Other{Children: children, Span: tr.loc(n)}
}

func (tr *translator) classDef(n *sitter.Node) Node {
	name := tr.constantRef(n.ChildByFieldName("name"))
	if name == nil {
		return tr.other(n)
	}
	var super *ConstantRef
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		// The superclass node wraps `< Expr`; the constant is its last
		// named child.
		if cnt := int(sc.NamedChildCount()); cnt > 0 {
			super = tr.constantRef(sc.NamedChild(cnt - 1))
		}
	}
	return &ClassDef{
		Name:       name,
		Superclass: super,
		Body:       tr.bodyStmts(n, n.ChildByFieldName("name"), n.ChildByFieldName("superclass")),
		Span:       tr.loc(n),
	}
}

func (tr *translator) moduleDef(n *sitter.Node) Node {
	name := tr.constantRef(n.ChildByFieldName("name"))
	if name == nil {
		return tr.other(n)
	}
	return &ModuleDef{
		Name: name,
		Body: tr.bodyStmts(n, n.ChildByFieldName("name")),
		Span: tr.loc(n),
	}
}

func (tr *translator) methodDef(n *sitter.Node, singleton bool) Node {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return tr.other(n)
	}

	declEnd := int(nameNode.EndByte())
	var params []Param
	if pl := n.ChildByFieldName("parameters"); pl != nil {
		declEnd = int(pl.EndByte())
		for i := 0; i < int(pl.NamedChildCount()); i++ {
			p := pl.NamedChild(i)
			id := p
			if p.Type() != "identifier" {
				// optional_parameter, keyword_parameter, splat_parameter
				// and friends carry the binding under a name field.
				id = p.ChildByFieldName("name")
			}
			if id == nil || id.Type() != "identifier" {
				continue
			}
			params = append(params, Param{Name: tr.text(id), Span: tr.loc(id)})
		}
	}

	return &MethodDef{
		Name:      tr.text(nameNode),
		NameLoc:   tr.loc(nameNode),
		DeclLoc:   symtab.Loc{File: tr.path, Start: int(n.StartByte()), End: declEnd},
		Params:    params,
		Body:      tr.bodyStmts(n, nameNode, n.ChildByFieldName("parameters"), n.ChildByFieldName("object")),
		Singleton: singleton,
		Span:      tr.loc(n),
	}
}

// bodyStmts collects the statement list of a class/module/method body,
// skipping the header children (name, superclass, parameters) that the
// definition translators already consumed. Depending on grammar version
// the statements sit under a body_statement child or directly under the
// definition node.
func (tr *translator) bodyStmts(n *sitter.Node, header ...*sitter.Node) []Node {
	skip := make(map[int]bool, len(header))
	for _, h := range header {
		if h != nil {
			skip[int(h.StartByte())] = true
		}
	}

	var out []Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" || skip[int(child.StartByte())] {
			continue
		}
		if child.Type() == "body_statement" {
			out = append(out, tr.stmts(child)...)
			continue
		}
		if node := tr.node(child); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// constantRef translates a constant or scope_resolution node into a
// segment chain. Returns nil when n is not a constant-shaped node.
func (tr *translator) constantRef(n *sitter.Node) *ConstantRef {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "constant":
		return &ConstantRef{Name: tr.text(n), Span: tr.loc(n)}
	case "scope_resolution":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return nil
		}
		return &ConstantRef{
			Name:  tr.text(nameNode),
			Scope: tr.constantRef(n.ChildByFieldName("scope")),
			Span:  tr.loc(nameNode),
		}
	}
	return nil
}

func (tr *translator) assignment(n *sitter.Node) Node {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		return tr.other(n)
	}
	target := tr.node(left)
	switch target.(type) {
	case *Ident, *VarRef, *ConstantRef:
	default:
		return tr.other(n)
	}
	var value Node
	if right != nil {
		value = tr.node(right)
	}
	return &Assign{Target: target, Value: value, Span: tr.loc(n)}
}

func (tr *translator) call(n *sitter.Node) Node {
	methodNode := n.ChildByFieldName("method")
	if methodNode == nil {
		return tr.other(n)
	}

	var recv Node
	if r := n.ChildByFieldName("receiver"); r != nil {
		recv = tr.node(r)
	}

	var args []Node
	if al := n.ChildByFieldName("arguments"); al != nil {
		args = tr.stmts(al)
	}
	if blk := n.ChildByFieldName("block"); blk != nil {
		args = append(args, tr.stmts(blk)...)
	}

	return &Send{
		Receiver: recv,
		Name:     tr.text(methodNode),
		NameLoc:  tr.loc(methodNode),
		Args:     args,
		Span:     tr.loc(n),
	}
}
