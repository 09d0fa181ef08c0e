// Package export renders composed notebook pages into downloadable
// documents. The text renderer here is the default backend; a PDF renderer
// can replace it behind the same interface.
package export

import (
	"fmt"
	"strings"

	"github.com/aozorasoft/renraku/backend/internal/layout"
)

// Document is a rendered, downloadable artifact.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Renderer turns a composed page into a document.
type Renderer interface {
	Render(page layout.Page, dateKey string) (Document, error)
}

// fullwidthSpace keeps blank cells the same visual width as CJK glyphs in
// monospaced output.
const fullwidthSpace = "　"

// TextRenderer draws the vertical grid as UTF-8 text, one grid row per
// line. Columns print left to right in reading order, so the page's
// right-to-left sequence is reversed: the date column lands at the right
// edge of each line, as on the rendered notebook.
type TextRenderer struct{}

// NewTextRenderer constructs the plain-text export backend.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render produces notebook-{dateKey}.txt for the page.
func (r *TextRenderer) Render(page layout.Page, dateKey string) (Document, error) {
	var builder strings.Builder
	builder.WriteString(page.Title)
	builder.WriteString("\n\n")

	for row := 0; row < page.Rows; row++ {
		line := make([]string, 0, len(page.Columns))
		for index := len(page.Columns) - 1; index >= 0; index-- {
			line = append(line, renderCell(page.Columns[index].Cells[row]))
		}
		builder.WriteString(strings.Join(line, " "))
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	builder.WriteString(page.Footer)
	builder.WriteString("\n")

	return Document{
		Filename:    fmt.Sprintf("notebook-%s.txt", dateKey),
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(builder.String()),
	}, nil
}

func renderCell(cell layout.Cell) string {
	switch cell.Kind {
	case layout.CellMarker:
		marker := cell.Category.Marker()
		if marker.Glyph == "" {
			return fullwidthSpace
		}
		return marker.Glyph
	case layout.CellGlyph:
		if cell.Paired {
			return cell.Text
		}
		if cell.Upright {
			// Half-width glyph padded to keep grid alignment.
			return cell.Text + " "
		}
		return cell.Text
	default:
		return fullwidthSpace
	}
}
