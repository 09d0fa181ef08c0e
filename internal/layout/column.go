package layout

// GridRows is the fixed height of every notebook column, header cell included.
const GridRows = 12

// MaxTextUnits is the number of cells available for segmented text in a
// content column (one row is reserved for the category marker).
const MaxTextUnits = GridRows - 1

// Category tags a content record and selects the marker occupying the
// column's header cell.
type Category string

const (
	CategoryHandout    Category = "handout"
	CategoryHomework   Category = "homework"
	CategoryNormal     Category = "normal"
	CategoryContact    Category = "contact"
	CategoryBelongings Category = "belongings"
	CategoryEmpty      Category = "empty"
)

// Categories lists the closed enumeration in a stable order.
func Categories() []Category {
	return []Category{
		CategoryHandout,
		CategoryHomework,
		CategoryNormal,
		CategoryContact,
		CategoryBelongings,
		CategoryEmpty,
	}
}

// Known reports whether the category belongs to the closed enumeration.
func (c Category) Known() bool {
	switch c {
	case CategoryHandout, CategoryHomework, CategoryNormal, CategoryContact, CategoryBelongings, CategoryEmpty:
		return true
	default:
		return false
	}
}

// Marker is the glyph and color token rendered in a content column's header
// cell.
type Marker struct {
	Glyph      string `json:"glyph"`
	ColorToken string `json:"color_token"`
}

// Marker resolves the category's header presentation. Unknown categories
// resolve to a blank marker rather than failing: a bad stored value must not
// take down the rendering of an entire day.
func (c Category) Marker() Marker {
	switch c {
	case CategoryHandout:
		return Marker{Glyph: "配", ColorToken: "handout"}
	case CategoryHomework:
		return Marker{Glyph: "宿", ColorToken: "homework"}
	case CategoryNormal:
		return Marker{Glyph: "○", ColorToken: "normal"}
	case CategoryContact:
		return Marker{Glyph: "連", ColorToken: "contact"}
	case CategoryBelongings:
		return Marker{Glyph: "持", ColorToken: "belongings"}
	default:
		return Marker{}
	}
}

// CellKind discriminates the three cell variants.
type CellKind string

const (
	// CellBlank is an empty grid slot.
	CellBlank CellKind = "blank"
	// CellMarker holds a category marker in a content column's header row.
	CellMarker CellKind = "marker"
	// CellGlyph holds one display unit of segmented text.
	CellGlyph CellKind = "glyph"
)

// Cell is one slot of a notebook column. Cells are derived on every render,
// never persisted.
type Cell struct {
	Kind CellKind `json:"kind"`
	// Text carries the glyph text: one rune, or two digits when Paired.
	Text string `json:"text,omitempty"`
	// Paired marks a two-digit unit rendered rotated-horizontal.
	Paired bool `json:"paired,omitempty"`
	// Upright marks a single Latin letter or digit set upright instead of
	// rotating with the column.
	Upright  bool     `json:"upright,omitempty"`
	Category Category `json:"category,omitempty"`
}

func blankCell() Cell {
	return Cell{Kind: CellBlank}
}

func glyphCell(unit Unit) Cell {
	cell := Cell{Kind: CellGlyph, Text: unit.Text, Paired: unit.Paired}
	if !unit.Paired {
		runes := []rune(unit.Text)
		cell.Upright = len(runes) == 1 && IsAlphanumeric(runes[0])
	}
	return cell
}

// Column is a fixed-height sequence of exactly GridRows cells.
type Column struct {
	Cells [GridRows]Cell `json:"cells"`
	// Header marks the date column, which is styled as a header band rather
	// than a content column.
	Header bool `json:"header,omitempty"`
}

// BuildColumn lays out one content record: a marker cell at row zero,
// segmented text in rows 1..11, blank padding after that. Over-long text is
// truncated silently and never rejected.
func BuildColumn(category Category, text string) Column {
	var column Column
	column.Cells[0] = Cell{Kind: CellMarker, Category: category}
	units := Segment(text)
	for row := 1; row < GridRows; row++ {
		if row-1 < len(units) {
			column.Cells[row] = glyphCell(units[row-1])
			continue
		}
		column.Cells[row] = blankCell()
	}
	return column
}
