package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/codegraph/codegraph/internal/codegraph"
)

// PythonAnalyzer extracts classes, functions and call edges from Python
// sources via tree-sitter.
type PythonAnalyzer struct{}

var _ LanguageAnalyzer = (*PythonAnalyzer)(nil)

func NewPythonAnalyzer() *PythonAnalyzer {
	return &PythonAnalyzer{}
}

func (pa *PythonAnalyzer) Extensions() []string {
	return []string{".py"}
}

func (pa *PythonAnalyzer) parse(ctx context.Context, root, rel string) (*sitter.Tree, []byte, error) {
	src, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rel, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	return tree, src, nil
}

// DeclarePass adds the file node plus every class and function it
// declares, wiring DEFINES edges. The file defines every entity in it
// (methods included) so deleting the file removes them all in one hop;
// classes additionally define their methods.
func (pa *PythonAnalyzer) DeclarePass(ctx context.Context, root, rel string, g Graph) error {
	tree, src, err := pa.parse(ctx, root, rel)
	if err != nil {
		return err
	}
	defer tree.Close()

	ref := codegraph.NewFileRef(rel)
	file := &codegraph.File{Path: ref.Path, Name: ref.Name, Ext: ref.Ext}
	if err := g.AddFile(ctx, file); err != nil {
		return err
	}

	var walk func(n *sitter.Node, classID int64) error
	walk = func(n *sitter.Node, classID int64) error {
		enclosing := classID

		switch n.Type() {
		case "class_definition":
			c := pa.processClassDefinition(n, rel, src)
			if err := g.AddClass(ctx, c); err != nil {
				return err
			}
			if err := g.ConnectEntities(ctx, "DEFINES", file.ID, c.ID); err != nil {
				return err
			}
			enclosing = c.ID

		case "function_definition":
			f := pa.processFunctionDefinition(n, rel, src)
			if err := g.AddFunction(ctx, f); err != nil {
				return err
			}
			if err := g.ConnectEntities(ctx, "DEFINES", file.ID, f.ID); err != nil {
				return err
			}
			if classID != 0 {
				if err := g.ConnectEntities(ctx, "DEFINES", classID, f.ID); err != nil {
					return err
				}
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			if err := walk(n.NamedChild(i), enclosing); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(tree.RootNode(), 0)
}

// CallPass records CALLS edges for every call whose callee resolves to a
// known function. Resolution is by name, local declarations first, then
// the graph at large; unresolved calls are skipped.
func (pa *PythonAnalyzer) CallPass(ctx context.Context, root, rel string, g Graph) error {
	tree, src, err := pa.parse(ctx, root, rel)
	if err != nil {
		return err
	}
	defer tree.Close()

	var walk func(n *sitter.Node, callerName string) error
	walk = func(n *sitter.Node, callerName string) error {
		enclosing := callerName

		switch n.Type() {
		case "function_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				enclosing = name.Content(src)
			}

		case "call":
			if enclosing != "" {
				if err := pa.linkCall(ctx, n, src, enclosing, g); err != nil {
					return err
				}
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			if err := walk(n.NamedChild(i), enclosing); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(tree.RootNode(), "")
}

func (pa *PythonAnalyzer) linkCall(ctx context.Context, call *sitter.Node, src []byte, callerName string, g Graph) error {
	calleeName := calleeOf(call, src)
	if calleeName == "" {
		return nil
	}

	caller, err := g.GetFunctionByName(ctx, callerName)
	if err != nil {
		return err
	}
	callee, err := g.GetFunctionByName(ctx, calleeName)
	if err != nil {
		return err
	}
	if caller == nil || callee == nil {
		return nil
	}

	pos := int(call.StartPoint().Row)
	return g.FunctionCallsFunction(ctx, caller.ID, callee.ID, pos)
}

// calleeOf extracts the called name: `foo(...)` yields foo, `x.bar(...)`
// yields bar. Anything else (subscripts, lambdas) is skipped.
func calleeOf(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(src)
		}
	}
	return ""
}

func (pa *PythonAnalyzer) processClassDefinition(n *sitter.Node, rel string, src []byte) *codegraph.Class {
	c := &codegraph.Class{
		Path:     rel,
		SrcStart: int(n.StartPoint().Row),
		SrcEnd:   int(n.EndPoint().Row),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = name.Content(src)
	}
	c.Doc = docstringOf(n, src)
	return c
}

func (pa *PythonAnalyzer) processFunctionDefinition(n *sitter.Node, rel string, src []byte) *codegraph.Function {
	f := &codegraph.Function{
		Path:     rel,
		Src:      n.Content(src),
		SrcStart: int(n.StartPoint().Row),
		SrcEnd:   int(n.EndPoint().Row),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		f.Name = name.Content(src)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		f.RetType = ret.Content(src)
	}
	f.Doc = docstringOf(n, src)

	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "identifier":
				f.AddArgument(p.Content(src), "")
			case "typed_parameter", "typed_default_parameter":
				var name, typ string
				// The name is the first identifier child; typed_parameter
				// has no name field.
				for j := 0; j < int(p.NamedChildCount()); j++ {
					if p.NamedChild(j).Type() == "identifier" {
						name = p.NamedChild(j).Content(src)
						break
					}
				}
				if tn := p.ChildByFieldName("type"); tn != nil {
					typ = tn.Content(src)
				}
				if name != "" {
					f.AddArgument(name, typ)
				}
			case "default_parameter":
				if pn := p.ChildByFieldName("name"); pn != nil {
					f.AddArgument(pn.Content(src), "")
				}
			}
		}
	}
	return f
}

// docstringOf returns the leading string expression of a definition
// body, if present.
func docstringOf(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	if s := first.NamedChild(0); s.Type() == "string" {
		return strings.Trim(s.Content(src), `"'`)
	}
	return ""
}
