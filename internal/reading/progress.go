package reading

import (
	"fmt"
	"math"
)

// Progress returns the reading progress in percent, rounded half-up to one
// decimal. known is false when the total length is zero or unset, in which
// case the percentage is meaningless.
func Progress(offset, total int) (percent float64, known bool) {
	if total <= 0 {
		return 0, false
	}
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	p := float64(offset) / float64(total) * 100
	return math.Floor(p*10+0.5) / 10, true
}

// ProgressBar renders a text progress bar like ▓▓▓▓░░░░░░ 42.3%.
// For unknown progress it returns an empty string.
func ProgressBar(offset, total, width int) string {
	percent, known := Progress(offset, total)
	if !known {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar = append(bar, '▓')
		} else {
			bar = append(bar, '░')
		}
	}
	return fmt.Sprintf("%s %.1f%%", string(bar), percent)
}
