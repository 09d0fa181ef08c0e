package layout

import (
	"fmt"
	"time"
)

// weekdayGlyphs is indexed by time.Weekday, which counts from Sunday.
var weekdayGlyphs = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// WeekdayGlyph returns the single-character weekday label for the date.
func WeekdayGlyph(date time.Time) string {
	return weekdayGlyphs[date.Weekday()]
}

// MonthDayLabel formats the date as "{month}月{day}日" with 1-based,
// unpadded month and day.
func MonthDayLabel(date time.Time) string {
	return fmt.Sprintf("%d月%d日", int(date.Month()), date.Day())
}

// BuildDateColumn lays out the date column: two leading blanks, the
// segmented month/day label, one blank separator, then the weekday glyph,
// padded with blanks to the fixed grid height. There is no marker row here;
// the whole column is plain text flagged as a header column. Overflow past
// the grid height is dropped silently, matching content-column truncation.
func BuildDateColumn(date time.Time) Column {
	cells := make([]Cell, 0, GridRows)
	cells = append(cells, blankCell(), blankCell())
	for _, unit := range Segment(MonthDayLabel(date)) {
		cells = append(cells, glyphCell(unit))
	}
	cells = append(cells, blankCell())
	for _, unit := range Segment(WeekdayGlyph(date)) {
		cells = append(cells, glyphCell(unit))
	}

	column := Column{Header: true}
	for row := 0; row < GridRows; row++ {
		if row < len(cells) {
			column.Cells[row] = cells[row]
			continue
		}
		column.Cells[row] = blankCell()
	}
	return column
}
