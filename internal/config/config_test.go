package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "resized", cfg.OutputDirectory)
	assert.Equal(t, 95, cfg.Quality)
	assert.Empty(t, cfg.Suffix)
	assert.Empty(t, cfg.Format)
	assert.False(t, cfg.WantsResize())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imresize.yaml")
	content := `
output_directory: thumbs
suffix: -small
width: 320
quality: 80
format: png
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "thumbs", cfg.OutputDirectory)
	assert.Equal(t, "-small", cfg.Suffix)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 0, cfg.Height)
	assert.Equal(t, 80, cfg.Quality)
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
	assert.True(t, cfg.WantsResize())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imresize.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quality: 80\n"), 0644))

	t.Setenv("IMRESIZE_QUALITY", "60")
	t.Setenv("IMRESIZE_OUTPUT_DIRECTORY", "from-env")
	t.Setenv("IMRESIZE_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Quality)
	assert.Equal(t, "from-env", cfg.OutputDirectory)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("quality: 0\n"), 0644))
	_, err := LoadConfig(invalid)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty output", func(c *Config) { c.OutputDirectory = "" }},
		{"quality too low", func(c *Config) { c.Quality = 0 }},
		{"quality too high", func(c *Config) { c.Quality = 101 }},
		{"negative width", func(c *Config) { c.Width = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}

	cfg := DefaultConfig()
	cfg.Quality = 1
	assert.NoError(t, cfg.Validate())
	cfg.Quality = 100
	assert.NoError(t, cfg.Validate())
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input      string
		wantWidth  int
		wantHeight int
		wantErr    bool
	}{
		{"400,300", 400, 300, false},
		{"400,", 400, 0, false},
		{",300", 0, 300, false},
		{" 400 , 300 ", 400, 300, false},
		{",", 0, 0, true},
		{"", 0, 0, true},
		{"400", 0, 0, true},
		{"abc,300", 0, 0, true},
		{"400,-3", 0, 0, true},
		{"0,300", 0, 0, true},
		{"400,300,200", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, h, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, w)
			assert.Equal(t, tt.wantHeight, h)
		})
	}
}
