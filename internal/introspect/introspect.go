package introspect

import "fmt"

// Kind classifies a resolved object.
type Kind int

const (
	KindPackage Kind = iota
	KindType
	KindFunc
	KindMethod
	KindField
	KindVar
	KindConst
	KindBuiltin
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindType:
		return "type"
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindVar:
		return "var"
	case KindConst:
		return "const"
	case KindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Position locates a declaration on disk. Line is 0 for directories.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Member is one entry of a package or type member listing.
type Member struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Doc  string `json:"doc,omitempty"` // first line only
}

// Source is the raw text of a declaration and the line it starts on.
type Source struct {
	Text string
	Line int
}

// Object is a resolved target. Every accessor that can be unavailable
// reports presence with a second boolean result instead of failing.
type Object interface {
	Name() string
	Kind() Kind
	// TypeName is the display type: "package", "struct", "func", the Go
	// type of a value, and so on.
	TypeName() string
	Callable() bool

	File() (Position, bool)
	Signature() (string, bool)
	Doc() (string, bool)
	Members() ([]Member, bool)
	Source() (Source, bool)

	// Lookup finds the named member, the way a selector expression would.
	Lookup(name string) (Object, bool)
}

// IsContainer reports whether obj lists members instead of showing source.
func IsContainer(obj Object) bool {
	k := obj.Kind()
	return k == KindPackage || k == KindType
}
