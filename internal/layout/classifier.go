package layout

// IsAlphanumeric reports whether the rune is an ASCII letter or digit.
// Alphanumeric glyphs are set upright inside an otherwise vertical column;
// everything else rotates with the column.
func IsAlphanumeric(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	default:
		return false
	}
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
