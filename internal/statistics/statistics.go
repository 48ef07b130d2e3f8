package statistics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a resize batch.
type Statistics struct {
	TotalFiles      int64
	FilesProcessed  int64
	FilesGenerated  int64
	FilesResized    int64
	FilesConverted  int64
	FilesWithErrors int64
	BytesWritten    int64

	DirectoriesCreated int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []StatError

	FormatStats map[string]int64

	mutex sync.RWMutex
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// Snapshot is a point-in-time copy of the counters, safe to serialize.
type Snapshot struct {
	TotalFiles      int64            `json:"total_files"`
	FilesProcessed  int64            `json:"files_processed"`
	FilesGenerated  int64            `json:"files_generated"`
	FilesResized    int64            `json:"files_resized"`
	FilesConverted  int64            `json:"files_converted"`
	FilesWithErrors int64            `json:"files_with_errors"`
	BytesWritten    int64            `json:"bytes_written"`
	ElapsedSeconds  float64          `json:"elapsed_seconds"`
	Formats         map[string]int64 `json:"formats"`
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:   time.Now(),
		FormatStats: make(map[string]int64),
		Errors:      make([]StatError, 0),
	}
}

// Start records the start of the batch and the number of input files.
func (s *Statistics) Start(totalFiles int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.StartTime = time.Now()
	atomic.StoreInt64(&s.TotalFiles, int64(totalFiles))
}

// IncrementFilesProcessed increases the count of processed files by 1.
func (s *Statistics) IncrementFilesProcessed() {
	atomic.AddInt64(&s.FilesProcessed, 1)
}

// IncrementFilesGenerated increases the count of generated files by 1.
func (s *Statistics) IncrementFilesGenerated() {
	atomic.AddInt64(&s.FilesGenerated, 1)
}

// IncrementFilesResized increases the count of resized files by 1.
func (s *Statistics) IncrementFilesResized() {
	atomic.AddInt64(&s.FilesResized, 1)
}

// IncrementFilesConverted increases the count of converted files by 1.
func (s *Statistics) IncrementFilesConverted() {
	atomic.AddInt64(&s.FilesConverted, 1)
}

// IncrementFilesWithErrors increases the count of files with errors by 1.
func (s *Statistics) IncrementFilesWithErrors() {
	atomic.AddInt64(&s.FilesWithErrors, 1)
}

// IncrementDirectoriesCreated increases the count of created directories by 1.
func (s *Statistics) IncrementDirectoriesCreated() {
	atomic.AddInt64(&s.DirectoriesCreated, 1)
}

// IncrementFormat increases the count for a specific output format by 1.
func (s *Statistics) IncrementFormat(format string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FormatStats[format]++
}

// AddBytesWritten adds the given number of bytes to the total bytes written.
func (s *Statistics) AddBytesWritten(bytes int64) {
	atomic.AddInt64(&s.BytesWritten, bytes)
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates final statistics such as duration and files per second.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := atomic.LoadInt64(&s.FilesProcessed)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// Snapshot returns a copy of the current counters. Before Finalize the
// elapsed time is measured up to now.
func (s *Statistics) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	elapsed := s.Duration
	if s.EndTime.IsZero() {
		elapsed = time.Since(s.StartTime)
	}

	formats := make(map[string]int64, len(s.FormatStats))
	for k, v := range s.FormatStats {
		formats[k] = v
	}

	return Snapshot{
		TotalFiles:      atomic.LoadInt64(&s.TotalFiles),
		FilesProcessed:  atomic.LoadInt64(&s.FilesProcessed),
		FilesGenerated:  atomic.LoadInt64(&s.FilesGenerated),
		FilesResized:    atomic.LoadInt64(&s.FilesResized),
		FilesConverted:  atomic.LoadInt64(&s.FilesConverted),
		FilesWithErrors: atomic.LoadInt64(&s.FilesWithErrors),
		BytesWritten:    atomic.LoadInt64(&s.BytesWritten),
		ElapsedSeconds:  elapsed.Seconds(),
		Formats:         formats,
	}
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	filesPerSecond := s.FilesPerSecond
	s.mutex.RUnlock()

	return fmt.Sprintf(`Image Resize Statistics Summary:

Files:
		Total: %d
		Processed: %d
		Generated: %d
		Resized: %d
		Converted: %d
		Errors: %d

Performance:
		Duration: %v
		Files/Second: %.2f
		Bytes Written: %s

Directories:
		Created: %d`,
		atomic.LoadInt64(&s.TotalFiles),
		atomic.LoadInt64(&s.FilesProcessed),
		atomic.LoadInt64(&s.FilesGenerated),
		atomic.LoadInt64(&s.FilesResized),
		atomic.LoadInt64(&s.FilesConverted),
		atomic.LoadInt64(&s.FilesWithErrors),
		duration,
		filesPerSecond,
		formatBytes(atomic.LoadInt64(&s.BytesWritten)),
		atomic.LoadInt64(&s.DirectoriesCreated))
}

// GetFormatBreakdown returns a formatted breakdown of output formats.
func (s *Statistics) GetFormatBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FormatStats) == 0 {
		return "No format statistics available"
	}

	names := make([]string, 0, len(s.FormatStats))
	for name := range s.FormatStats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Format Breakdown:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %d\n", name, s.FormatStats[name])
	}
	return b.String()
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GetDuration returns the total duration of the batch.
func (s *Statistics) GetDuration() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Duration
}
