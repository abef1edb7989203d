package extraction

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// horizontal gaps are measured in multiples of the glyph's font size
	wordGapFactor = 0.2
	cellGapFactor = 1.5
	defaultFont   = 10.0
)

// TextLayerStrategy reads the embedded text layer and recovers tables from
// the horizontal layout of each row.
type TextLayerStrategy struct{}

// NewTextLayerStrategy creates the primary strategy.
func NewTextLayerStrategy() *TextLayerStrategy {
	return &TextLayerStrategy{}
}

func (s *TextLayerStrategy) Name() string { return "text_layer" }

// Extract parses data with the pure-Go PDF reader. Parser panics on malformed
// input are reported as errors.
func (s *TextLayerStrategy) Extract(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, readPage(p))
	}
	return RenderPages(pages), nil
}

func readPage(p pdf.Page) Page {
	rows, err := p.GetTextByRow()
	if err != nil {
		plain, perr := p.GetPlainText(nil)
		if perr != nil {
			return Page{}
		}
		return Page{Prose: []string{plain}}
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, rowCells(row.Content))
	}
	return groupRows(cells)
}

// rowCells joins the glyph runs of one row into cells, starting a new cell at
// every gap wider than cellGapFactor font sizes.
func rowCells(texts pdf.TextHorizontal) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cur strings.Builder
	prevEnd := sorted[0].X
	for i, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = defaultFont
		}
		gap := t.X - prevEnd
		switch {
		case i > 0 && gap > cellGapFactor*size:
			if c := strings.TrimSpace(cur.String()); c != "" {
				cells = append(cells, c)
			}
			cur.Reset()
		case i > 0 && gap > wordGapFactor*size && !endsWithSpace(&cur) && !strings.HasPrefix(t.S, " "):
			cur.WriteByte(' ')
		}
		cur.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	if c := strings.TrimSpace(cur.String()); c != "" {
		cells = append(cells, c)
	}
	return cells
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s == "" || strings.HasSuffix(s, " ")
}
