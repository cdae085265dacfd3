package clifmt

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultTableWidth     = 100
	defaultMinDetailWidth = 36
)

// Row is one table entry. Notes are printed dimmed under the detail, one per
// line.
type Row struct {
	Name   string
	Detail string
	Notes  []string
}

type TableOptions struct {
	Title        string
	Rows         []Row
	EmptyText    string
	NameHeader   string
	DetailHeader string
	// Width overrides terminal detection; zero means detect, falling back to
	// defaultTableWidth.
	Width int
}

// PrintTable writes a two column table, wrapping the detail column to the
// terminal width.
func PrintTable(out io.Writer, opts TableOptions) {
	if out == nil {
		out = os.Stdout
	}
	if title := strings.TrimSpace(opts.Title); title != "" {
		fmt.Fprintln(out, Headerf("%s (%d)", title, len(opts.Rows)))
	}
	if len(opts.Rows) == 0 {
		empty := strings.TrimSpace(opts.EmptyText)
		if empty == "" {
			empty = "No entries."
		}
		fmt.Fprintln(out, Warn(empty))
		return
	}

	nameHeader := orDefault(opts.NameHeader, "NAME")
	detailHeader := orDefault(opts.DetailHeader, "DETAILS")

	nameWidth := utf8.RuneCountInString(nameHeader)
	for _, row := range opts.Rows {
		nameWidth = max(nameWidth, utf8.RuneCountInString(row.Name))
	}
	detailWidth := max(detailColumnWidth(out, opts.Width)-nameWidth-2, defaultMinDetailWidth)
	indent := strings.Repeat(" ", nameWidth)

	fmt.Fprintf(out, "%s  %s\n", Key(padRight(nameHeader, nameWidth)), Key(detailHeader))
	fmt.Fprintf(out, "%s  %s\n", Dim(strings.Repeat("-", nameWidth)), Dim(strings.Repeat("-", detailWidth)))
	for _, row := range opts.Rows {
		lines := wrapWords(orDefault(row.Detail, "-"), detailWidth)
		fmt.Fprintf(out, "%s  %s\n", Success(padRight(row.Name, nameWidth)), lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, "%s  %s\n", indent, line)
		}
		for _, note := range row.Notes {
			for _, line := range wrapWords(note, detailWidth) {
				fmt.Fprintf(out, "%s  %s\n", indent, Dim(line))
			}
		}
	}
}

func detailColumnWidth(out io.Writer, override int) int {
	if override > 0 {
		return override
	}
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultTableWidth
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func padRight(s string, width int) string {
	missing := width - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	return s + strings.Repeat(" ", missing)
}

func wrapWords(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" || width <= 0 {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
