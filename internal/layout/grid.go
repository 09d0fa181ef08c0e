package layout

// Page aspect, width over height. The notebook renders as a fixed-ratio
// portrait sheet regardless of how many content columns it carries.
const (
	PageAspectWidth  = 5
	PageAspectHeight = 7
)

// Page is the composed single-page layout handed to display and export.
// Columns run right-to-left: index zero sits at the leading (right) edge.
type Page struct {
	Title string `json:"title"`
	// Columns holds the date column first, then content columns in record
	// list order. Reordering a record changes this sequence, not record ids.
	Columns      []Column `json:"columns"`
	Rows         int      `json:"rows"`
	AspectWidth  int      `json:"aspect_width"`
	AspectHeight int      `json:"aspect_height"`
	Footer       string   `json:"footer"`
}

// ComposePage assembles one notebook page from the date column and the
// content columns. The date column takes the leading edge; content columns
// follow right-to-left preserving their given order.
func ComposePage(title string, dateColumn Column, contentColumns []Column, footer string) Page {
	columns := make([]Column, 0, 1+len(contentColumns))
	columns = append(columns, dateColumn)
	columns = append(columns, contentColumns...)
	return Page{
		Title:        title,
		Columns:      columns,
		Rows:         GridRows,
		AspectWidth:  PageAspectWidth,
		AspectHeight: PageAspectHeight,
		Footer:       footer,
	}
}
