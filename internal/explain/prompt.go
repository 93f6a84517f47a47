package explain

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/goexplain/internal/render"
)

// Prompt size limits. Large packages and long functions are truncated with a
// note so the model knows it is seeing a prefix.
const (
	maxPromptMembers     = 60
	maxPromptSourceLines = 200
	maxPromptDocRunes    = 4000
)

const systemPrompt = `You are an expert Go developer explaining code to a colleague.
You are given facts about one Go symbol: its kind, type, signature, doc comment, and either its members or its source.
Explain in at most three short paragraphs of plain text what the symbol is for and how it is typically used.
Do not restate the signature verbatim. Do not use Markdown headings. If the facts are insufficient, say so briefly.`

// BuildPrompt serializes rep into the user prompt for an explainer.
func BuildPrompt(rep *render.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SYMBOL: %s\n", rep.Target)
	fmt.Fprintf(&b, "KIND: %s\n", rep.Kind)
	fmt.Fprintf(&b, "TYPE: %s\n", rep.Type)
	if rep.Signature != "" {
		fmt.Fprintf(&b, "SIGNATURE: %s\n", rep.Signature)
	}

	b.WriteString("\nDOC:\n")
	if rep.Doc == "" {
		b.WriteString("  (none)\n")
	} else {
		b.WriteString(indent(truncateRunes(rep.Doc, maxPromptDocRunes)))
	}

	if rep.Container {
		members := rep.Members
		if len(members) > maxPromptMembers {
			members = members[:maxPromptMembers]
			fmt.Fprintf(&b, "\nMEMBERS (%d shown of %d):\n", maxPromptMembers, len(rep.Members))
		} else {
			b.WriteString("\nMEMBERS:\n")
		}
		for _, m := range members {
			fmt.Fprintf(&b, "  - %s %s", m.Name, m.Type)
			if m.Doc != "" {
				fmt.Fprintf(&b, " // %s", m.Doc)
			}
			b.WriteByte('\n')
		}
		return b.String()
	}

	if rep.Source == "" {
		b.WriteString("\nSOURCE: (not available)\n")
		return b.String()
	}
	lines := strings.Split(rep.Source, "\n")
	if len(lines) > maxPromptSourceLines {
		fmt.Fprintf(&b, "\nSOURCE (first %d of %d lines):\n", maxPromptSourceLines, len(lines))
		lines = lines[:maxPromptSourceLines]
	} else {
		b.WriteString("\nSOURCE:\n")
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteByte('\n')
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
