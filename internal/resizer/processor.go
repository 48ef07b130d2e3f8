package resizer

import (
	"fmt"
	"os"
	"time"

	"imresize-go/internal/codec"
	"imresize-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// Processor resizes and/or converts single files. A failure on one file is
// reported in its Result and never panics or aborts the caller.
type Processor struct {
	params   Params
	codec    codec.Codec
	logger   *logrus.Logger
	metadata MetadataCopier
}

// NewProcessor returns a new Processor. metadata may be nil.
func NewProcessor(params Params, c codec.Codec, logger *logrus.Logger, metadata MetadataCopier) *Processor {
	return &Processor{
		params:   params,
		codec:    c,
		logger:   logger,
		metadata: metadata,
	}
}

// Process decodes inputPath, resizes it if a size was requested and encodes
// it into the output directory.
func (p *Processor) Process(inputPath string) Result {
	res := Result{
		InputPath: inputPath,
		StartedAt: time.Now(),
	}

	raster, err := p.codec.Decode(inputPath)
	if err != nil {
		logger.WithFileOperation(p.logger, inputPath, "decode").Errorf("Could not open %q: %v", inputPath, err)
		return p.fail(res, fmt.Errorf("%w %q: %w", ErrDecode, inputPath, err))
	}
	res.SourceFormat = raster.Format

	format := raster.Format
	if p.params.Format != "" {
		format, _ = codec.ParseFormat(p.params.Format)
	}
	res.Format = format
	res.Converted = format != raster.Format

	outPath, err := BuildOutputPath(inputPath, p.params.OutputDir, p.params.Suffix, raster.Format, format)
	if err != nil {
		logger.WithFileOperation(p.logger, inputPath, "naming").Errorf("Could not name output for %q: %v", inputPath, err)
		return p.fail(res, err)
	}
	res.OutputPath = outPath

	width, height := raster.Width(), raster.Height()
	if p.params.Width > 0 || p.params.Height > 0 {
		width, height, err = Resolve(width, height, p.params.Width, p.params.Height)
		if err != nil {
			logger.WithFileOperation(p.logger, inputPath, "resize").Errorf("Could not resize %q: %v", inputPath, err)
			return p.fail(res, fmt.Errorf("%q: %w", inputPath, err))
		}
		raster = p.codec.Resize(raster, width, height)
		res.Resized = true
	}
	res.Width, res.Height = width, height

	if err := p.codec.Encode(raster, outPath, format, p.params.Quality); err != nil {
		logger.WithFileOperation(p.logger, outPath, "encode").Errorf("Could not save %q: %v", outPath, err)
		return p.fail(res, fmt.Errorf("%w %q: %w", ErrEncode, outPath, err))
	}

	if p.metadata != nil {
		if err := p.metadata.Copy(inputPath, outPath); err != nil {
			logger.WithFileOperation(p.logger, outPath, "metadata").Warnf("Could not copy metadata to %q: %v", outPath, err)
		}
	}

	if info, err := os.Stat(outPath); err == nil {
		res.BytesWritten = info.Size()
	}

	res.Success = true
	res.FinishedAt = time.Now()

	p.logger.WithFields(logrus.Fields{
		"file":   inputPath,
		"output": outPath,
		"width":  width,
		"height": height,
	}).Infof("Created %q (size: %d,%d).", outPath, width, height)

	return res
}

func (p *Processor) fail(res Result, err error) Result {
	res.Success = false
	res.Error = err
	res.FinishedAt = time.Now()
	return res
}
