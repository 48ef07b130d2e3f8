package codec

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// readOrientation returns the EXIF Orientation tag (1-8) of an image stream.
func readOrientation(r io.Reader) (int, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, err
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("invalid orientation tag: %w", err)
	}
	if orientation < 1 || orientation > 8 {
		return 0, fmt.Errorf("orientation out of range: %d", orientation)
	}

	return orientation, nil
}

// applyOrientation transforms img so that it displays upright for the given
// EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
