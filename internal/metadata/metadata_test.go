package metadata

import (
	"image/color"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCopier(t *testing.T) *ExiftoolCopier {
	t.Helper()
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	c, err := NewExiftoolCopier(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCopyStampsSoftware(t *testing.T) {
	c := newCopier(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	require.NoError(t, imaging.Save(imaging.New(16, 16, color.White), src))
	require.NoError(t, imaging.Save(imaging.New(8, 8, color.White), dst))

	require.NoError(t, c.Copy(src, dst))

	values, err := c.Read(dst, "Software")
	require.NoError(t, err)
	assert.Equal(t, SoftwareTag, values["Software"])
}

func TestCopyMissingSource(t *testing.T) {
	c := newCopier(t)
	dir := t.TempDir()

	dst := filepath.Join(dir, "dst.jpg")
	require.NoError(t, imaging.Save(imaging.New(8, 8, color.White), dst))

	assert.Error(t, c.Copy(filepath.Join(dir, "missing.jpg"), dst))
}

func TestDefaultTags(t *testing.T) {
	assert.Contains(t, DefaultTags, "DateTimeOriginal")
	assert.NotContains(t, DefaultTags, "Software")
}
