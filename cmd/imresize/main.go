package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"imresize-go/internal/batch"
	"imresize-go/internal/codec"
	"imresize-go/internal/config"
	"imresize-go/internal/logger"
	"imresize-go/internal/statistics"
	"imresize-go/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options holds the values of the command line flags.
type options struct {
	cfgFile          string
	outputDir        string
	size             string
	suffix           string
	format           string
	quality          int
	autoOrient       bool
	preserveMetadata bool
	verbose          bool
	quiet            bool
	port             int
}

// newRootCmd builds the imresize command tree.
func newRootCmd() *cobra.Command {
	opts := &options{}

	// rootCmd resizes and converts the files given as arguments.
	rootCmd := &cobra.Command{
		Use:   "imresize [flags] <file1> [<file2>...<fileN>]",
		Short: "Resize and convert images in batch",
		Long: `imresize resizes and/or converts a list of images, writing the results
into an output directory. When only one side of the size is given the
other is computed to keep the aspect ratio.

Supported output formats: ` + strings.Join(codec.Formats(), ", "),
		Example: `  imresize -s 400, -o out photo.jpg
  imresize -f JPEG -q 80 -a -thumb a.png`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Usage()
				return errors.New("no input files")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResize(cmd, opts, args)
		},
	}

	// serveCmd starts the web interface server.
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web interface server",
		Long: `Starts a web server exposing a JSON API for resize jobs.
Progress of a running job is streamed over a WebSocket at /ws.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./imresize.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().StringVarP(&opts.outputDir, "output", "o", config.DefaultOutputDirectory, "output directory")
	rootCmd.Flags().StringVarP(&opts.size, "size", "s", "", "target size as width,height (either may be empty)")
	rootCmd.Flags().StringVarP(&opts.suffix, "suffix", "a", "", "suffix appended before the extension")
	rootCmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (default: same as source)")
	rootCmd.Flags().IntVarP(&opts.quality, "quality", "q", config.DefaultQuality, "encoder quality (1-100)")
	rootCmd.Flags().BoolVar(&opts.autoOrient, "auto-orient", false, "apply EXIF orientation before resizing")
	rootCmd.Flags().BoolVar(&opts.preserveMetadata, "preserve-metadata", false, "copy EXIF tags to outputs (requires exiftool)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.Usage()
		return err
	})

	serveCmd.Flags().IntVar(&opts.port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// runResize processes every input file and prints the run summary.
func runResize(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log := setupLogger(cfg, opts, cmd.ErrOrStderr())
	if !cfg.WantsResize() {
		log.Debug("No size given, images keep their dimensions")
	}

	stats := statistics.NewStatistics()
	imageCodec := codec.NewImagingCodec(log, cfg.AutoOrient)

	runner, closeFn, err := batch.NewFromConfig(cfg, log, stats, imageCodec, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := runner.Run(args); err != nil {
		return err
	}

	if opts.verbose {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n"+stats.GetSummary())
		fmt.Fprintln(out, stats.GetFormatBreakdown())
		fmt.Fprintln(out, stats.GetErrorSummary())
	}

	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := config.LoadConfig(opts.cfgFile)
	if err != nil {
		return err
	}

	log := setupLogger(cfg, opts, cmd.ErrOrStderr())
	server := web.NewServer(cfg, log, codec.NewImagingCodec(log, cfg.AutoOrient))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(opts.port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("imresize web interface listening on http://localhost:%d\n", opts.port)
	fmt.Printf("Press Ctrl+C to stop the server\n\n")

	<-sigChan
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped gracefully")
	return nil
}

// loadConfig loads configuration and applies the flags given on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDirectory = opts.outputDir
	}
	if flags.Changed("size") {
		width, height, err := config.ParseSize(opts.size)
		if err != nil {
			return nil, err
		}
		cfg.Width, cfg.Height = width, height
	}
	if flags.Changed("suffix") {
		cfg.Suffix = opts.suffix
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("quality") {
		cfg.Quality = opts.quality
	}
	if flags.Changed("auto-orient") {
		cfg.AutoOrient = opts.autoOrient
	}
	if flags.Changed("preserve-metadata") {
		cfg.PreserveMetadata = opts.preserveMetadata
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger configures and returns a logger writing to console.
func setupLogger(cfg *config.Config, opts *options, console io.Writer) *logrus.Logger {
	loggerCfg := logger.DefaultConfig()
	loggerCfg.Level = cfg.Logging.Level
	loggerCfg.Format = cfg.Logging.Format
	loggerCfg.FilePath = cfg.Logging.FilePath
	loggerCfg.MaxSize = cfg.Logging.MaxSize
	loggerCfg.MaxBackups = cfg.Logging.MaxBackups
	loggerCfg.MaxAge = cfg.Logging.MaxAge
	loggerCfg.Compress = cfg.Logging.Compress
	loggerCfg.Output = console

	if opts.verbose {
		loggerCfg.Level = "debug"
	}
	if opts.quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetOutput(console)
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("Falling back to default logger: %v", err)
	}

	return log
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
