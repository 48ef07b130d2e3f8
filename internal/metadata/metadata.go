package metadata

import (
	"fmt"

	"github.com/barasher/go-exiftool"
	"github.com/sirupsen/logrus"
)

// SoftwareTag is written to the Software tag of every output touched by the copier.
const SoftwareTag = "imresize"

// DefaultTags are the descriptive tags carried over from source to output.
var DefaultTags = []string{
	"DateTimeOriginal",
	"CreateDate",
	"Make",
	"Model",
	"Artist",
	"Copyright",
	"ImageDescription",
}

// ExiftoolCopier copies metadata between files through a long-running exiftool process.
type ExiftoolCopier struct {
	et     *exiftool.Exiftool
	tags   []string
	logger *logrus.Logger
}

// NewExiftoolCopier starts exiftool. It fails when the exiftool binary is not installed.
func NewExiftoolCopier(logger *logrus.Logger, tags ...string) (*ExiftoolCopier, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	if len(tags) == 0 {
		tags = DefaultTags
	}
	return &ExiftoolCopier{
		et:     et,
		tags:   tags,
		logger: logger,
	}, nil
}

// Copy writes the configured tags found in src onto dst and stamps dst with SoftwareTag.
func (c *ExiftoolCopier) Copy(src, dst string) error {
	values, err := c.Read(src, c.tags...)
	if err != nil {
		return fmt.Errorf("read metadata from %s: %w", src, err)
	}

	out := exiftool.FileMetadata{
		File:   dst,
		Fields: make(map[string]interface{}),
	}

	copied := 0
	for _, tag := range c.tags {
		if value := values[tag]; value != "" {
			out.SetString(tag, value)
			copied++
		}
	}
	out.SetString("Software", SoftwareTag)

	batch := []exiftool.FileMetadata{out}
	c.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("write metadata to %s: %w", dst, batch[0].Err)
	}

	c.logger.Debugf("Copied %d metadata tags from %s to %s", copied, src, dst)
	return nil
}

// Read returns the values of the given tags in path, skipping absent ones.
func (c *ExiftoolCopier) Read(path string, tags ...string) (map[string]string, error) {
	files := c.et.ExtractMetadata(path)
	if len(files) == 0 {
		return nil, fmt.Errorf("no metadata returned for %s", path)
	}
	if files[0].Err != nil {
		return nil, files[0].Err
	}

	values := make(map[string]string, len(tags))
	for _, tag := range tags {
		if v, err := files[0].GetString(tag); err == nil {
			values[tag] = v
		}
	}
	return values, nil
}

// Close stops the exiftool process.
func (c *ExiftoolCopier) Close() error {
	return c.et.Close()
}
