package resizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"imresize-go/internal/codec"
)

// BuildOutputPath derives where the output for input is written.
//
// Only the base name of input is kept and joined with outputDir. A suffix
// is inserted before the last dot of the name. When targetFormat is set and
// differs from sourceFormat, the extension (after suffix insertion) is
// replaced by the target format's extension. Format names are compared
// after normalization, so "jpg" and "JPEG" are the same format.
func BuildOutputPath(input, outputDir, suffix, sourceFormat, targetFormat string) (string, error) {
	name := filepath.Base(input)

	source, _ := codec.ParseFormat(sourceFormat)
	effective := source
	if targetFormat != "" {
		effective, _ = codec.ParseFormat(targetFormat)
	}

	if suffix != "" {
		stem, ext, ok := splitExt(name)
		if !ok {
			return "", fmt.Errorf("%w: %q has no extension to put suffix %q before", ErrPathDerivation, name, suffix)
		}
		name = stem + suffix + "." + ext
	}

	if effective != source {
		stem, _, _ := splitExt(name)
		name = stem + "." + codec.Extension(effective)
	}

	return filepath.Join(outputDir, name), nil
}

// splitExt splits name at its last dot. ok is false when name has no dot.
func splitExt(name string) (stem, ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, "", false
	}
	return name[:i], name[i+1:], true
}
