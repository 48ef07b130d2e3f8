package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"imresize-go/internal/codec"
	"imresize-go/internal/config"
	"imresize-go/internal/metadata"
	"imresize-go/internal/resizer"
	"imresize-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// FileProcessor processes a single input file.
type FileProcessor interface {
	Process(inputPath string) resizer.Result
}

// ResultHook is called with the result of every file, in input order.
type ResultHook func(res resizer.Result)

// Summary is the aggregate outcome of a batch.
type Summary struct {
	Generated int
	Errors    int
	Elapsed   time.Duration
}

// ElapsedSeconds returns the batch duration in seconds.
func (s Summary) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}

// Runner processes a list of files one after another.
type Runner struct {
	outputDir string
	logger    *logrus.Logger
	stats     *statistics.Statistics
	processor FileProcessor
	hook      ResultHook
}

// NewRunner returns a new Runner.
func NewRunner(outputDir string, logger *logrus.Logger, stats *statistics.Statistics, processor FileProcessor) *Runner {
	return NewRunnerWithHook(outputDir, logger, stats, processor, nil)
}

// NewRunnerWithHook returns a Runner that also reports each result to hook.
func NewRunnerWithHook(
	outputDir string,
	logger *logrus.Logger,
	stats *statistics.Statistics,
	processor FileProcessor,
	hook ResultHook,
) *Runner {
	return &Runner{
		outputDir: outputDir,
		logger:    logger,
		stats:     stats,
		processor: processor,
		hook:      hook,
	}
}

// NewFromConfig wires a Runner for cfg: a resizer.Processor over c and, when
// cfg.PreserveMetadata is set, an exiftool metadata copier. The returned
// close function releases the copier and must be called when done.
func NewFromConfig(
	cfg *config.Config,
	logger *logrus.Logger,
	stats *statistics.Statistics,
	c codec.Codec,
	hook ResultHook,
) (*Runner, func() error, error) {
	closeFn := func() error { return nil }

	var copier resizer.MetadataCopier
	if cfg.PreserveMetadata {
		et, err := metadata.NewExiftoolCopier(logger)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: preserve_metadata needs exiftool: %w", config.ErrConfiguration, err)
		}
		copier = et
		closeFn = et.Close
	}

	processor := resizer.NewProcessor(resizer.ParamsFromConfig(cfg), c, logger, copier)
	return NewRunnerWithHook(cfg.OutputDirectory, logger, stats, processor, hook), closeFn, nil
}

// EnsureOutputDir makes sure dir exists as a directory. Only the last path
// element is created; missing parents are an error.
func EnsureOutputDir(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, fmt.Errorf("%w: %q is not a directory", config.ErrConfiguration, dir)
		}
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.Mkdir(dir, 0755); err != nil {
			return false, fmt.Errorf("%w: could not create output directory: %w", config.ErrConfiguration, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
}

// Run processes files in order. A failing file is counted and logged but
// never stops the batch; only an unusable output directory aborts the run,
// before any file is touched.
func (r *Runner) Run(files []string) (Summary, error) {
	created, err := EnsureOutputDir(r.outputDir)
	if err != nil {
		return Summary{}, err
	}
	if created {
		r.stats.IncrementDirectoriesCreated()
		r.logger.Debugf("Created directory: %s", r.outputDir)
	}

	r.logger.Debugf("Processing %d files into %s", len(files), r.outputDir)
	r.stats.Start(len(files))

	var summary Summary
	for _, file := range files {
		res := r.processor.Process(file)
		r.record(res)
		if res.Success {
			summary.Generated++
		} else {
			summary.Errors++
		}
		if r.hook != nil {
			r.hook(res)
		}
	}

	r.stats.Finalize()
	summary.Elapsed = r.stats.GetDuration()

	r.logger.WithFields(logrus.Fields{
		"generated": summary.Generated,
		"errors":    summary.Errors,
	}).Infof("Generated %d images in %.2fs.", summary.Generated, summary.ElapsedSeconds())
	if summary.Errors > 0 {
		r.logger.Warnf("WARNING: there were %d errors.", summary.Errors)
	}

	return summary, nil
}

// record updates the statistics with one file result.
func (r *Runner) record(res resizer.Result) {
	r.stats.IncrementFilesProcessed()

	if !res.Success {
		r.stats.IncrementFilesWithErrors()
		msg := "unknown error"
		if res.Error != nil {
			msg = res.Error.Error()
		}
		r.stats.AddError(res.InputPath, operationOf(res.Error), msg)
		return
	}

	r.stats.IncrementFilesGenerated()
	r.stats.IncrementFormat(res.Format)
	r.stats.AddBytesWritten(res.BytesWritten)
	if res.Resized {
		r.stats.IncrementFilesResized()
	}
	if res.Converted {
		r.stats.IncrementFilesConverted()
	}
}

// operationOf names the stage a per-file error came from.
func operationOf(err error) string {
	switch {
	case errors.Is(err, resizer.ErrDecode):
		return "decode"
	case errors.Is(err, resizer.ErrPathDerivation):
		return "naming"
	case errors.Is(err, resizer.ErrDegenerateSource):
		return "resize"
	case errors.Is(err, resizer.ErrEncode):
		return "encode"
	default:
		return "process"
	}
}
