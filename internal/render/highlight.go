package render

import (
	"go/scanner"
	"go/token"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// highlight colors Go source token by token. Text the scanner cannot make
// sense of is passed through unchanged.
func highlight(src string, st *styles) string {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), func(token.Position, string) {}, scanner.ScanComments)

	var b strings.Builder
	last := 0
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		// Automatically inserted semicolons have no text of their own.
		if tok == token.SEMICOLON && lit != ";" {
			continue
		}

		off := file.Offset(pos)
		end := tokenEnd(src, off, tok, lit)
		if off < last || end > len(src) {
			continue
		}

		b.WriteString(src[last:off])
		b.WriteString(renderLines(st.token(tok), src[off:end]))
		last = end
	}
	b.WriteString(src[last:])
	return b.String()
}

func tokenEnd(src string, off int, tok token.Token, lit string) int {
	switch {
	case tok == token.COMMENT && strings.HasPrefix(src[off:], "//"):
		if i := strings.IndexByte(src[off:], '\n'); i >= 0 {
			return off + i
		}
		return len(src)
	case tok == token.COMMENT:
		if i := strings.Index(src[off:], "*/"); i >= 0 {
			return off + i + 2
		}
		return len(src)
	case tok == token.STRING && strings.HasPrefix(src[off:], "`"):
		// The scanner drops carriage returns from raw strings.
		if i := strings.IndexByte(src[off+1:], '`'); i >= 0 {
			return off + i + 2
		}
		return len(src)
	case lit != "":
		return off + len(lit)
	default:
		return off + len(tok.String())
	}
}

// renderLines styles each line on its own so lipgloss does not pad a
// multi-line token (raw strings, block comments) into a rectangle.
func renderLines(style lipgloss.Style, text string) string {
	if !strings.Contains(text, "\n") {
		return style.Render(text)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
