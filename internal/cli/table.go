package cli

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Table formats rows into aligned columns. Widths are display widths, so
// wide (CJK) wallpaper and theme names line up.
type Table struct {
	headers   []string
	rows      [][]string
	padding   int
	maxWidths map[int]int
	plain     bool
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:   headers,
		rows:      [][]string{},
		padding:   2,
		maxWidths: make(map[int]int),
	}
}

// SetColumnMaxWidth sets the maximum display width for a column. Longer
// cells wrap onto continuation lines.
func (t *Table) SetColumnMaxWidth(col, width int) {
	t.maxWidths[col] = width
}

// SetPlain drops the header separator line, for output that is piped
// rather than read on a terminal.
func (t *Table) SetPlain(plain bool) {
	t.plain = plain
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	switch {
	case len(row) < len(t.headers):
		padded := make([]string, len(t.headers))
		copy(padded, row)
		row = padded
	case len(row) > len(t.headers):
		row = row[:len(t.headers)]
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			w := runewidth.StringWidth(cell)
			if maxW, ok := t.maxWidths[i]; ok && w > maxW {
				w = maxW
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Render returns the formatted table.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}
	widths := t.columnWidths()

	var sb strings.Builder
	t.writeLine(&sb, t.headers, widths)

	if !t.plain {
		sep := make([]string, len(widths))
		for i, w := range widths {
			sep[i] = strings.Repeat("-", w)
		}
		t.writeLine(&sb, sep, widths)
	}

	for _, row := range t.rows {
		wrapped := make([][]string, len(row))
		lines := 1
		for i, cell := range row {
			if maxW, ok := t.maxWidths[i]; ok {
				wrapped[i] = wrapText(cell, maxW)
			} else {
				wrapped[i] = []string{cell}
			}
			lines = max(lines, len(wrapped[i]))
		}
		for l := range lines {
			line := make([]string, len(row))
			for i := range row {
				if l < len(wrapped[i]) {
					line[i] = wrapped[i][l]
				}
			}
			t.writeLine(&sb, line, widths)
		}
	}
	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string, widths []int) {
	gap := strings.Repeat(" ", t.padding)
	for i, cell := range cells {
		if i == len(cells)-1 {
			sb.WriteString(cell)
			break
		}
		sb.WriteString(runewidth.FillRight(cell, widths[i]))
		sb.WriteString(gap)
	}
	sb.WriteString("\n")
}

// wrapText breaks text at spaces so that no line exceeds width display
// cells. Words wider than width are split.
func wrapText(text string, width int) []string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return []string{text}
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		for runewidth.StringWidth(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				_, n := utf8.DecodeRuneInString(word)
				head = word[:n]
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		switch {
		case word == "":
		case current == "":
			current = word
		case runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// newTableFor returns a table that is plain unless out is a terminal.
func newTableFor(out io.Writer, headers ...string) *Table {
	t := NewTable(headers)
	t.SetPlain(!isTerminal(out))
	return t
}
