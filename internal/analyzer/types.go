package analyzer

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/packages"
)

// Options controls how packages are loaded and members are listed.
type Options struct {
	Dir               string // directory go list runs in (module root)
	IncludeUnexported bool
	BuildFlags        []string
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedImports

// builtinPath is the package documenting predeclared identifiers.
const builtinPath = "builtin"

const builtinMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedSyntax

// declKey identifies a declaration independently of the token.FileSet
// bookkeeping that produced it. Objects decoded from export data carry the
// file and line of their declaration but report every column as 1, so the
// name stands in for the column.
type declKey struct {
	file string // base name
	line int
	name string
}

// decl is the syntax behind one declared name.
type decl struct {
	node ast.Node          // *ast.FuncDecl, *ast.TypeSpec, *ast.ValueSpec or *ast.Field
	gen  *ast.GenDecl      // enclosing declaration for specs, nil otherwise
	doc  *ast.CommentGroup // nil when undocumented
	pos  token.Position    // position of the declared name
}

// declIndex maps declared names of one package to their syntax.
type declIndex struct {
	byPos  map[declKey]decl
	byName map[string]decl // top-level declarations only
}
