package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	table := NewTable([]string{"Name", "Age", "City"})
	require.NotNil(t, table)
	assert.Len(t, table.headers, 3)
	assert.Equal(t, 2, table.padding)
	assert.Equal(t, 0, table.Len())
}

func TestTableAddRow(t *testing.T) {
	table := NewTable([]string{"Name", "Age"})

	table.AddRow([]string{"Alice", "30"})
	table.AddRow([]string{"Bob"})
	table.AddRow([]string{"Charlie", "25", "Extra"})

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Bob", ""}, table.rows[1])
	assert.Equal(t, []string{"Charlie", "25"}, table.rows[2])
}

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"Name", "Age", "City"})
	table.AddRow([]string{"Alice", "30", "New York"})
	table.AddRow([]string{"Bob", "25", "LA"})

	lines := strings.Split(strings.TrimSuffix(table.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name   Age  City", lines[0])
	assert.Equal(t, "-----  ---  --------", lines[1])
	assert.Equal(t, "Alice  30   New York", lines[2])
	assert.Equal(t, "Bob    25   LA", lines[3])
}

func TestTableRenderPlain(t *testing.T) {
	table := NewTable([]string{"ID", "Name"})
	table.SetPlain(true)
	table.AddRow([]string{"a", "b"})

	assert.Equal(t, "ID  Name\na   b\n", table.Render())
}

func TestTableRenderEmpty(t *testing.T) {
	assert.Empty(t, NewTable(nil).Render())
}

func TestTableRenderWideRunes(t *testing.T) {
	table := NewTable([]string{"Name", "File"})
	table.SetPlain(true)
	table.AddRow([]string{"夜空", "night.png"})
	table.AddRow([]string{"Sea", "sea.jpg"})

	lines := strings.Split(strings.TrimSuffix(table.Render(), "\n"), "\n")
	require.Len(t, lines, 3)

	// The second column starts at the same display column on every line.
	col := runewidth.StringWidth("Name") + 2
	for _, line := range lines {
		prefix := runewidth.Truncate(line, col, "")
		assert.Equal(t, col, runewidth.StringWidth(prefix), "line %q", line)
	}
	assert.Equal(t, "夜空  night.png", lines[1])
}

func TestTableColumnMaxWidth(t *testing.T) {
	table := NewTable([]string{"Key", "Value"})
	table.SetPlain(true)
	table.SetColumnMaxWidth(1, 10)
	table.AddRow([]string{"text", "hello there world"})

	lines := strings.Split(strings.TrimSuffix(table.Render(), "\n"), "\n")
	assert.Equal(t, []string{
		"Key   Value",
		"text  hello",
		"      there",
		"      world",
	}, lines)
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "fits", text: "short", width: 10, want: []string{"short"}},
		{name: "no limit", text: "a long line", width: 0, want: []string{"a long line"}},
		{name: "word boundaries", text: "one two three", width: 7, want: []string{"one two", "three"}},
		{name: "long word split", text: "abcdefghij", width: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "wide runes", text: "夜空星辰", width: 4, want: []string{"夜空", "星辰"}},
		{name: "wide rune in narrow column", text: "夜空", width: 1, want: []string{"夜", "空"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}

func TestNewTableForBuffer(t *testing.T) {
	var buf bytes.Buffer
	table := newTableFor(&buf, "A")
	assert.True(t, table.plain)
	assert.False(t, isTerminal(&buf))
}
