package codec

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"imresize-go/internal/logger"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImagingCodec implements Codec on top of github.com/disintegration/imaging.
type ImagingCodec struct {
	logger     *logrus.Logger
	autoOrient bool
}

// NewImagingCodec creates a new ImagingCodec. When autoOrient is set the EXIF
// Orientation tag is applied to every decoded raster.
func NewImagingCodec(logger *logrus.Logger, autoOrient bool) *ImagingCodec {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImagingCodec{
		logger:     logger,
		autoOrient: autoOrient,
	}
}

// Decode opens and decodes the image at path. The file is closed before
// Decode returns.
func (c *ImagingCodec) Decode(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, name, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	raster := &Raster{
		Image:  img,
		Format: strings.ToUpper(name),
	}

	if c.autoOrient {
		c.orient(file, raster)
	}

	return raster, nil
}

// orient applies the EXIF orientation of file to raster. Missing or
// unreadable EXIF data leaves the raster untouched.
func (c *ImagingCodec) orient(file *os.File, raster *Raster) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logger.WithFile(c.logger, file.Name()).Debugf("Could not rewind for EXIF: %v", err)
		return
	}

	orientation, err := readOrientation(file)
	if err != nil {
		logger.WithFile(c.logger, file.Name()).Debugf("No EXIF orientation: %v", err)
		return
	}

	raster.Image = applyOrientation(raster.Image, orientation)
	raster.Orientation = orientation
}

// Resize scales r with a Lanczos filter.
func (c *ImagingCodec) Resize(r *Raster, width, height int) *Raster {
	return &Raster{
		Image:       imaging.Resize(r.Image, width, height, imaging.Lanczos),
		Format:      r.Format,
		Orientation: r.Orientation,
	}
}

// Encode writes r to path. The image is first written to a temporary file
// next to path and renamed into place, so a failed encode leaves nothing
// behind. An existing file at path is overwritten.
func (c *ImagingCodec) Encode(r *Raster, path, format string, quality int) error {
	name, _ := ParseFormat(format)
	info, ok := formats[name]
	if !ok || !info.encodable {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	var opts []imaging.EncodeOption
	switch info.encoder {
	case imaging.JPEG:
		opts = append(opts, imaging.JPEGQuality(quality))
	case imaging.PNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}

	tmpPath := path + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := imaging.Encode(out, r.Image, info.encoder, opts...); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	c.logger.Debugf("Encoded %s as %s (quality %d)", path, name, quality)
	return nil
}

// Formats lists the formats Encode accepts.
func (c *ImagingCodec) Formats() []string {
	return Formats()
}
