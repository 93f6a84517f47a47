package analyzer

import (
	"go/ast"
	"go/token"
	"path/filepath"
)

func keyOf(pos token.Position, name string) declKey {
	return declKey{file: filepath.Base(pos.Filename), line: pos.Line, name: name}
}

// buildIndex records every declared name of files: top-level functions,
// methods, types, vars and consts, plus struct fields and interface methods.
func buildIndex(fset *token.FileSet, files []*ast.File) *declIndex {
	idx := &declIndex{
		byPos:  make(map[declKey]decl),
		byName: make(map[string]decl),
	}

	add := func(name *ast.Ident, d decl, topLevel bool) {
		d.pos = fset.Position(name.Pos())
		idx.byPos[keyOf(d.pos, name.Name)] = d
		if !topLevel {
			return
		}
		if _, dup := idx.byName[name.Name]; !dup {
			idx.byName[name.Name] = d
		}
	}

	addFields := func(expr ast.Expr) {
		ast.Inspect(expr, func(n ast.Node) bool {
			var list *ast.FieldList
			switch t := n.(type) {
			case *ast.StructType:
				list = t.Fields
			case *ast.InterfaceType:
				list = t.Methods
			case *ast.FuncType:
				return false // parameters are not members
			default:
				return true
			}
			if list == nil {
				return true
			}
			for _, field := range list.List {
				doc := field.Doc
				if doc == nil {
					doc = field.Comment
				}
				if len(field.Names) == 0 {
					if id := embeddedIdent(field.Type); id != nil {
						add(id, decl{node: field, doc: doc}, false)
					}
					continue
				}
				for _, name := range field.Names {
					add(name, decl{node: field, doc: doc}, false)
				}
			}
			return true
		})
	}

	for _, f := range files {
		for _, fd := range f.Decls {
			switch d := fd.(type) {
			case *ast.FuncDecl:
				add(d.Name, decl{node: d, doc: d.Doc}, d.Recv == nil)
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						add(s.Name, decl{node: s, gen: d, doc: specDoc(s.Doc, d)}, true)
						addFields(s.Type)
					case *ast.ValueSpec:
						doc := specDoc(s.Doc, d)
						for _, name := range s.Names {
							add(name, decl{node: s, gen: d, doc: doc}, true)
						}
					}
				}
			}
		}
	}

	return idx
}

// specDoc picks the comment documenting a type, var or const spec. The
// parser attaches the doc of an ungrouped declaration to the GenDecl, not the
// spec. A trailing line comment is not documentation; only fields use it.
func specDoc(doc *ast.CommentGroup, gen *ast.GenDecl) *ast.CommentGroup {
	if doc != nil || len(gen.Specs) != 1 {
		return doc
	}
	return gen.Doc
}

// embeddedIdent returns the identifier go/types uses as the position of an
// embedded field.
func embeddedIdent(expr ast.Expr) *ast.Ident {
	switch e := expr.(type) {
	case *ast.Ident:
		return e
	case *ast.StarExpr:
		return embeddedIdent(e.X)
	case *ast.SelectorExpr:
		return e.Sel
	case *ast.IndexExpr:
		return embeddedIdent(e.X)
	case *ast.IndexListExpr:
		return embeddedIdent(e.X)
	}
	return nil
}
