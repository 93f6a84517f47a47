package analyzer

import (
	"go/types"
	"sort"
	"strings"

	"github.com/olehluchkiv/goexplain/internal/introspect"
)

// visible reports whether obj belongs in a member listing. Go's notion of
// "public" is an exported identifier.
func (l *Loader) visible(obj types.Object) bool {
	return l.opts.IncludeUnexported || obj.Exported()
}

func (l *Loader) member(obj types.Object) (introspect.Member, bool) {
	w := l.wrap(obj)
	if w == nil {
		return introspect.Member{}, false
	}
	doc, _ := w.Doc()
	return introspect.Member{
		Name: obj.Name(),
		Type: w.TypeName(),
		Doc:  firstLine(doc),
	}, true
}

func sortMembers(members []introspect.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
