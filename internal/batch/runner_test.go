package batch

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"imresize-go/internal/codec"
	"imresize-go/internal/config"
	"imresize-go/internal/resizer"
	"imresize-go/internal/statistics"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProcessor struct {
	fail  map[string]error
	calls []string
}

func (p *scriptedProcessor) Process(inputPath string) resizer.Result {
	p.calls = append(p.calls, inputPath)
	if err, ok := p.fail[inputPath]; ok {
		return resizer.Result{InputPath: inputPath, Error: err}
	}
	return resizer.Result{InputPath: inputPath, Success: true, Format: "JPEG", Resized: true, BytesWritten: 10}
}

func testLogger(buf *bytes.Buffer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

func TestRunCountsFailuresWithoutAborting(t *testing.T) {
	var buf bytes.Buffer
	outDir := filepath.Join(t.TempDir(), "out")
	proc := &scriptedProcessor{fail: map[string]error{
		"b.jpg": fmt.Errorf("%w: broken", resizer.ErrDecode),
		"d.jpg": fmt.Errorf("%w: denied", resizer.ErrEncode),
	}}
	stats := statistics.NewStatistics()

	var seen []string
	runner := NewRunnerWithHook(outDir, testLogger(&buf), stats, proc, func(res resizer.Result) {
		seen = append(seen, res.InputPath)
	})

	files := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	summary, err := runner.Run(files)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Generated)
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, files, proc.calls)
	assert.Equal(t, files, seen)
	assert.DirExists(t, outDir)

	snap := stats.Snapshot()
	assert.Equal(t, int64(5), snap.TotalFiles)
	assert.Equal(t, int64(3), snap.FilesGenerated)
	assert.Equal(t, int64(2), snap.FilesWithErrors)
	assert.Equal(t, int64(30), snap.BytesWritten)
	assert.Equal(t, int64(1), stats.DirectoriesCreated)
	require.Len(t, stats.Errors, 2)
	assert.Equal(t, "decode", stats.Errors[0].Operation)
	assert.Equal(t, "encode", stats.Errors[1].Operation)

	assert.Contains(t, buf.String(), "Generated 3 images in")
	assert.Contains(t, buf.String(), "WARNING: there were 2 errors.")
}

func TestRunNoWarningWithoutErrors(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(t.TempDir(), testLogger(&buf), statistics.NewStatistics(), &scriptedProcessor{})

	summary, err := runner.Run([]string{"a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 0, summary.Errors)
	assert.NotContains(t, buf.String(), "WARNING")
}

func TestRunOutputIsFile(t *testing.T) {
	var buf bytes.Buffer
	outFile := filepath.Join(t.TempDir(), "resized")
	require.NoError(t, os.WriteFile(outFile, []byte("x"), 0644))
	proc := &scriptedProcessor{}

	_, err := NewRunner(outFile, testLogger(&buf), statistics.NewStatistics(), proc).Run([]string{"a.jpg"})
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.Empty(t, proc.calls)
}

func TestEnsureOutputDir(t *testing.T) {
	root := t.TempDir()

	created, err := EnsureOutputDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureOutputDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.False(t, created)

	_, err = EnsureOutputDir(filepath.Join(root, "missing", "nested"))
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "decode", operationOf(fmt.Errorf("%w", resizer.ErrDecode)))
	assert.Equal(t, "naming", operationOf(fmt.Errorf("%w", resizer.ErrPathDerivation)))
	assert.Equal(t, "encode", operationOf(fmt.Errorf("%w", resizer.ErrEncode)))
	assert.Equal(t, "resize", operationOf(fmt.Errorf("%q: %w", "blank.png", resizer.ErrDegenerateSource)))
	assert.Equal(t, "process", operationOf(nil))
}

func TestNewFromConfigEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	good := filepath.Join(inDir, "photo.jpg")
	require.NoError(t, imaging.Save(imaging.New(800, 600, color.White), good))
	bad := filepath.Join(inDir, "broken.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))
	missing := filepath.Join(inDir, "missing.png")

	cfg := config.DefaultConfig()
	cfg.OutputDirectory = outDir
	cfg.Width = 400

	log := testLogger(&buf)
	runner, closeFn, err := NewFromConfig(cfg, log, statistics.NewStatistics(), codec.NewImagingCodec(log, false), nil)
	require.NoError(t, err)
	defer closeFn()

	summary, err := runner.Run([]string{good, bad, missing})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 2, summary.Errors)

	out, err := imaging.Open(filepath.Join(outDir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 400, out.Bounds().Dx())
	assert.Equal(t, 300, out.Bounds().Dy())
}
