package render

import (
	"github.com/olehluchkiv/goexplain/internal/introspect"
)

// Report is everything known about one resolved target. Empty strings mean
// "unavailable"; the renderers substitute their own notices.
type Report struct {
	Target      string              `json:"target"`
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Type        string              `json:"type"`
	File        string              `json:"file,omitempty"`
	Signature   string              `json:"signature,omitempty"`
	Doc         string              `json:"doc,omitempty"`
	Container   bool                `json:"container"`
	Members     []introspect.Member `json:"members,omitempty"`
	Source      string              `json:"source,omitempty"`
	SourceLine  int                 `json:"source_line,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
}

// Collect queries obj for every fact a report shows. Each query either
// succeeds or leaves its field empty; none of them aborts the others.
func Collect(target string, obj introspect.Object) *Report {
	rep := &Report{
		Target:    target,
		Name:      obj.Name(),
		Kind:      obj.Kind().String(),
		Type:      obj.TypeName(),
		Container: introspect.IsContainer(obj),
	}

	if pos, ok := obj.File(); ok {
		rep.File = pos.String()
	}

	if obj.Callable() && !rep.Container {
		if sig, ok := obj.Signature(); ok {
			rep.Signature = sig
		}
	}

	if doc, ok := obj.Doc(); ok {
		rep.Doc = doc
	}

	if rep.Container {
		if members, ok := obj.Members(); ok {
			rep.Members = members
		}
	} else if src, ok := obj.Source(); ok {
		rep.Source = src.Text
		rep.SourceLine = src.Line
	}

	return rep
}
