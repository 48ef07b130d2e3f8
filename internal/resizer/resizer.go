package resizer

import (
	"errors"
	"time"

	"imresize-go/internal/config"
)

var (
	// ErrDecode marks an input that could not be opened or parsed as an image.
	ErrDecode = errors.New("could not open image")
	// ErrEncode marks an output that could not be written.
	ErrEncode = errors.New("could not save image")
	// ErrPathDerivation marks an input whose output name could not be built.
	ErrPathDerivation = errors.New("could not derive output path")
	// ErrDegenerateSource marks a source raster with a zero dimension.
	ErrDegenerateSource = errors.New("source image has no pixels")
)

// Params defines the settings applied to every file of a batch.
type Params struct {
	OutputDir string
	Suffix    string
	Width     int    // 0 means computed from Height
	Height    int    // 0 means computed from Width
	Format    string // empty means same as source
	Quality   int
}

// ParamsFromConfig extracts the processing parameters from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		OutputDir: cfg.OutputDirectory,
		Suffix:    cfg.Suffix,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    cfg.Format,
		Quality:   cfg.Quality,
	}
}

// Result describes the result of processing a single file.
type Result struct {
	InputPath    string
	OutputPath   string
	SourceFormat string
	Format       string
	Width        int
	Height       int
	Resized      bool
	Converted    bool
	BytesWritten int64
	Success      bool
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        error
}

// MetadataCopier copies image metadata from an input to its generated output.
type MetadataCopier interface {
	Copy(src, dst string) error
}
