package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// extractText returns the statement as lines of text. PDF content is
// rebuilt row by row from positioned glyph runs; anything else is taken to
// be text that was extracted upstream.
func extractText(data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrUnreadableFile, err)
	}

	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrUnreadableFile, i, err)
		}
		for _, row := range rows {
			out.WriteString(joinRow(row.Content))
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// joinRow concatenates the runs of one text row, inserting a space where
// the horizontal gap between runs is wider than a fraction of the font size.
func joinRow(runs pdf.TextHorizontal) string {
	var b strings.Builder
	var end float64
	for i, t := range runs {
		if i > 0 && t.X-end > gapFor(t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		w := t.W
		if w <= 0 {
			w = float64(len([]rune(t.S))) * t.FontSize * 0.5
		}
		end = t.X + w
	}
	return strings.TrimSpace(b.String())
}

func gapFor(t pdf.Text) float64 {
	if g := t.FontSize * 0.25; g > 1 {
		return g
	}
	return 1
}
