package resizer

import (
	"fmt"
	"math"
)

// Resolve computes the target size of a resize. A zero width or height is
// derived from the other so that the source aspect ratio is kept; when both
// are given they are returned unchanged. Derived values are rounded half away
// from zero and never drop below 1.
func Resolve(srcWidth, srcHeight, width, height int) (int, int, error) {
	switch {
	case width > 0 && height > 0:
		return width, height, nil
	case srcWidth <= 0 || srcHeight <= 0:
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrDegenerateSource, srcWidth, srcHeight)
	case width > 0:
		return width, scale(srcHeight, width, srcWidth), nil
	case height > 0:
		return scale(srcWidth, height, srcHeight), height, nil
	default:
		return srcWidth, srcHeight, nil
	}
}

// scale returns round(side * num / den), at least 1.
func scale(side, num, den int) int {
	v := int(math.Round(float64(side) * float64(num) / float64(den)))
	if v < 1 {
		return 1
	}
	return v
}
