package layout

// Unit is one display unit produced by segmentation: either a single rune,
// or two consecutive ASCII digits collapsed into one rotated-horizontal pair.
type Unit struct {
	Text   string
	Paired bool
}

// Segment splits text into an ordered sequence of display units. Digit
// pairing is greedy and non-overlapping: at each position two consecutive
// ASCII digits become one paired unit, otherwise exactly one rune is
// consumed. Every input rune lands in exactly one unit, so concatenating
// the unit texts reconstructs the input.
func Segment(text string) []Unit {
	runes := []rune(text)
	units := make([]Unit, 0, len(runes))
	for position := 0; position < len(runes); {
		if position+1 < len(runes) && isASCIIDigit(runes[position]) && isASCIIDigit(runes[position+1]) {
			units = append(units, Unit{Text: string(runes[position : position+2]), Paired: true})
			position += 2
			continue
		}
		units = append(units, Unit{Text: string(runes[position])})
		position++
	}
	return units
}

// ClampText returns the longest prefix of text that segments into at most
// maxUnits display units. The edit surface uses it to enforce the column
// budget before storage.
func ClampText(text string, maxUnits int) string {
	if maxUnits <= 0 {
		return ""
	}
	units := Segment(text)
	if len(units) <= maxUnits {
		return text
	}
	clamped := ""
	for _, unit := range units[:maxUnits] {
		clamped += unit.Text
	}
	return clamped
}
