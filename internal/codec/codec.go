package codec

import (
	"errors"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned when a raster cannot be encoded in the requested format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Raster is a decoded image together with the codec it was read with.
type Raster struct {
	Image       image.Image
	Format      string // canonical codec name, e.g. "JPEG"
	Orientation int    // EXIF orientation applied at decode time, 0 if none
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.Image.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.Image.Bounds().Dy()
}

// Codec defines the boundary to the underlying imaging library.
type Codec interface {
	// Decode reads the file at path into a Raster.
	Decode(path string) (*Raster, error)
	// Resize returns a copy of r scaled to width x height.
	Resize(r *Raster, width, height int) *Raster
	// Encode writes r to path in the given format.
	// quality applies to lossy formats only.
	Encode(r *Raster, path, format string, quality int) error
	// Formats lists the formats Encode accepts.
	Formats() []string
}

type formatInfo struct {
	ext       string
	encoder   imaging.Format
	encodable bool
}

var formats = map[string]formatInfo{
	"JPEG": {ext: "jpg", encoder: imaging.JPEG, encodable: true},
	"PNG":  {ext: "png", encoder: imaging.PNG, encodable: true},
	"GIF":  {ext: "gif", encoder: imaging.GIF, encodable: true},
	"TIFF": {ext: "tiff", encoder: imaging.TIFF, encodable: true},
	"BMP":  {ext: "bmp", encoder: imaging.BMP, encodable: true},
	"WEBP": {ext: "webp"},
}

var aliases = map[string]string{
	"JPG": "JPEG",
	"TIF": "TIFF",
}

// ParseFormat normalizes a user supplied format name. The returned name is
// upper-cased even when the format is unknown; ok reports whether the codec
// recognizes it.
func ParseFormat(name string) (canonical string, ok bool) {
	canonical = strings.ToUpper(strings.TrimSpace(name))
	if alias, found := aliases[canonical]; found {
		canonical = alias
	}
	_, ok = formats[canonical]
	return canonical, ok
}

// Extension returns the file extension, without the dot, used for format.
func Extension(format string) string {
	name, _ := ParseFormat(format)
	if info, ok := formats[name]; ok {
		return info.ext
	}
	return strings.ToLower(name)
}

// Formats returns the sorted names of all encodable formats.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name, info := range formats {
		if info.encodable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
