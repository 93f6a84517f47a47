package render

import (
	"fmt"
	"go/doc/comment"
	"go/token"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// DefaultWidth is used when no width is configured.
const DefaultWidth = 100

const minWidth = 40

var (
	colorCyan    = lipgloss.Color("6")
	colorYellow  = lipgloss.Color("3")
	colorBlue    = lipgloss.Color("4")
	colorGreen   = lipgloss.Color("2")
	colorRed     = lipgloss.Color("1")
	colorMagenta = lipgloss.Color("5")
	colorGray    = lipgloss.Color("8")
)

// styles are bound to one lipgloss renderer so color output follows the
// destination, not os.Stdout.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	notice  lipgloss.Style
	errText lipgloss.Style
	lineNo  lipgloss.Style

	member lipgloss.Style
	typ    lipgloss.Style
	desc   lipgloss.Style
	header lipgloss.Style

	keyword lipgloss.Style
	str     lipgloss.Style
	number  lipgloss.Style
	comment lipgloss.Style
	plain   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *styles {
	return &styles{
		title:   r.NewStyle().Bold(true).Reverse(true).Foreground(colorMagenta).Align(lipgloss.Center),
		label:   r.NewStyle().Bold(true).Foreground(colorYellow),
		dim:     r.NewStyle().Faint(true),
		notice:  r.NewStyle().Italic(true).Foreground(colorYellow),
		errText: r.NewStyle().Bold(true).Foreground(colorRed),
		lineNo:  r.NewStyle().Foreground(colorGray),

		member: r.NewStyle().Foreground(colorCyan),
		typ:    r.NewStyle().Foreground(colorMagenta),
		desc:   r.NewStyle().Foreground(colorGreen),
		header: r.NewStyle().Bold(true),

		keyword: r.NewStyle().Foreground(colorMagenta).Bold(true),
		str:     r.NewStyle().Foreground(colorYellow),
		number:  r.NewStyle().Foreground(colorCyan),
		comment: r.NewStyle().Foreground(colorGray).Italic(true),
		plain:   r.NewStyle(),
	}
}

func (st *styles) token(tok token.Token) lipgloss.Style {
	switch {
	case tok.IsKeyword():
		return st.keyword
	case tok == token.STRING || tok == token.CHAR:
		return st.str
	case tok == token.INT || tok == token.FLOAT || tok == token.IMAG:
		return st.number
	case tok == token.COMMENT:
		return st.comment
	}
	return st.plain
}

// Text renders reports as bordered terminal panels.
type Text struct {
	w      io.Writer
	width  int
	r      *lipgloss.Renderer
	styles *styles
}

// NewText creates a panel renderer writing to w. Colors are enabled only when
// w is a terminal that supports them.
func NewText(w io.Writer, width int) *Text {
	if width <= 0 {
		width = DefaultWidth
	}
	if width < minWidth {
		width = minWidth
	}
	r := lipgloss.NewRenderer(w)
	return &Text{w: w, width: width, r: r, styles: newStyles(r)}
}

// Render writes the panels for rep: title, Info, Signature, Documentation,
// then Members or Source, then Explanation when one was produced.
func (t *Text) Render(rep *Report) error {
	var sections []string

	sections = append(sections, "", t.styles.title.Width(t.width).Render("Inspecting: "+rep.Target), "")
	sections = append(sections, t.infoPanel(rep))

	if rep.Signature != "" {
		sections = append(sections, t.panel("Signature", highlight(rep.Signature, t.styles), colorYellow))
	}

	sections = append(sections, t.docPanel(rep))

	if rep.Container {
		sections = append(sections, t.membersPanel(rep))
	} else {
		sections = append(sections, t.sourcePanel(rep))
	}

	if rep.Explanation != "" {
		sections = append(sections, t.panel("Explanation", rep.Explanation, colorMagenta))
	}

	_, err := fmt.Fprintln(t.w, strings.Join(sections, "\n"))
	return err
}

// panel draws body inside a rounded border spanning the full width.
func (t *Text) panel(title, body string, color lipgloss.Color) string {
	heading := t.r.NewStyle().Bold(true).Foreground(color).Render(title)
	box := t.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(t.width - 2)
	return box.Render(heading + "\n" + body)
}

func (t *Text) infoPanel(rep *Report) string {
	file := rep.File
	if file == "" {
		file = t.styles.dim.Render("N/A (predeclared identifier)")
	}
	rows := [][2]string{
		{"Kind:", rep.Kind},
		{"Type:", rep.Type},
		{"File:", file},
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = t.styles.label.Width(6).Render(row[0]) + " " + row[1]
	}
	return t.panel("Info", strings.Join(lines, "\n"), colorCyan)
}

func (t *Text) docPanel(rep *Report) string {
	if rep.Doc == "" {
		return t.panel("Documentation", t.styles.notice.Render("No doc comment found."), colorYellow)
	}
	return t.panel("Documentation", formatDoc(rep.Doc, t.width-6), colorBlue)
}

func (t *Text) membersPanel(rep *Report) string {
	if len(rep.Members) == 0 {
		return t.panel("Members", t.styles.notice.Render("No exported members."), colorBlue)
	}

	rows := make([][]string, len(rep.Members))
	for i, m := range rep.Members {
		rows[i] = []string{m.Name, m.Type, m.Doc}
	}

	st := t.styles
	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("Member", "Type", "Description").
		Rows(rows...).
		Width(t.width - 6).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			switch col {
			case 0:
				return st.member
			case 1:
				return st.typ
			}
			return st.desc
		})

	return t.panel("Members", tbl.Render(), colorBlue)
}

func (t *Text) sourcePanel(rep *Report) string {
	if rep.Source == "" {
		msg := t.styles.errText.Render("Source code not available.") + "\n\n" +
			"This object is predeclared or has no Go source on disk."
		return t.panel("Source Code", msg, colorRed)
	}
	body := numberLines(highlight(rep.Source, t.styles), rep.SourceLine, t.styles.lineNo)
	return t.panel(fmt.Sprintf("Source Code (%s)", rep.Target), body, colorGreen)
}

// numberLines prefixes each line with its line number in the original file.
func numberLines(src string, first int, style lipgloss.Style) string {
	if first <= 0 {
		first = 1
	}
	lines := strings.Split(src, "\n")
	digits := len(fmt.Sprint(first + len(lines) - 1))
	for i, line := range lines {
		lines[i] = style.Render(fmt.Sprintf("%*d", digits, first+i)) + "  " + line
	}
	return strings.Join(lines, "\n")
}

// formatDoc reflows a doc comment using Go doc comment syntax: paragraphs,
// lists, code blocks and headings.
func formatDoc(text string, width int) string {
	var p comment.Parser
	d := p.Parse(text)
	pr := comment.Printer{TextWidth: width}
	return strings.TrimRight(string(pr.Text(d)), "\n")
}
