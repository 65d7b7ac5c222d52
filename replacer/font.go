package replacer

// Font sizing bounds, in the same units as the measured box.
const (
	MinFontSize = 12
	MaxFontSize = 24
	FontDivisor = 8
)

// FontSize scales text to the box: min(w,h)/8 clamped to [12, 24].
func FontSize(width, height float64) float64 {
	return max(MinFontSize, min(min(width, height)/FontDivisor, MaxFontSize))
}
