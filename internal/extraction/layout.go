package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

// Table is a grid of cell texts, one slice per row.
type Table [][]string

// Page is the structured content of one PDF page.
type Page struct {
	Tables []Table
	Prose  []string
}

// Render serializes the page: each table as a "[Table N]" marker followed by
// pipe-separated rows, then the prose lines. Blocks are separated by blank lines.
func (p Page) Render() string {
	blocks := make([]string, 0, len(p.Tables)+1)
	for i, t := range p.Tables {
		var b strings.Builder
		fmt.Fprintf(&b, "[Table %d]", i+1)
		for _, row := range t {
			b.WriteByte('\n')
			b.WriteString(strings.Join(row, " | "))
		}
		blocks = append(blocks, b.String())
	}
	if prose := strings.TrimSpace(strings.Join(p.Prose, "\n")); prose != "" {
		blocks = append(blocks, prose)
	}
	return strings.Join(blocks, "\n\n")
}

// RenderPages joins rendered pages with blank lines, skipping empty pages.
func RenderPages(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if r := p.Render(); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n\n")
}

// groupRows collects runs of at least two consecutive multi-cell rows into
// tables; every other row becomes a prose line.
func groupRows(rows [][]string) Page {
	var page Page
	var run [][]string

	flush := func() {
		if len(run) >= 2 {
			page.Tables = append(page.Tables, Table(run))
		} else {
			for _, r := range run {
				page.Prose = append(page.Prose, strings.Join(r, " "))
			}
		}
		run = nil
	}

	for _, cells := range rows {
		if len(cells) >= 2 {
			run = append(run, cells)
			continue
		}
		flush()
		if len(cells) == 1 {
			page.Prose = append(page.Prose, cells[0])
		} else {
			page.Prose = append(page.Prose, "")
		}
	}
	flush()
	return page
}

var columnGap = regexp.MustCompile(`\s{2,}`)

// splitLayoutLine splits a fixed-width layout line on runs of two or more spaces.
func splitLayoutLine(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	return columnGap.Split(trimmed, -1)
}

// parseLayoutPage builds a Page from fixed-width layout text.
func parseLayoutPage(text string) Page {
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, splitLayoutLine(line))
	}
	return groupRows(rows)
}
