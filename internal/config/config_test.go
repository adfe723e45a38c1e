package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/trendscope-cli/internal/render"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "charts", c.OutputDir)
	assert.Equal(t, "png", c.ChartFormat)
	assert.Equal(t, 10.0, c.ChartWidthIn)
	assert.Equal(t, 6.0, c.ChartHeightIn)
	assert.Equal(t, 5, c.TopCategories)
	assert.True(t, c.Diagnostics)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "console", c.LogFormat)
	require.NoError(t, c.Validate())
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("chart_format", "SVG"))
	require.NoError(t, c.Set("sample_rows", "3"))
	require.NoError(t, c.Set("diagnostics", "false"))
	require.NoError(t, Save(c, ""))

	dir, err := Dir()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "svg", got.ChartFormat)
	assert.Equal(t, 3, got.SampleRows)
	assert.False(t, got.Diagnostics)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: from-file\ntop_categories: 3\n"), 0o644))
	t.Setenv("TRENDSCOPE_OUTPUT_DIR", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.OutputDir)
	assert.Equal(t, 3, c.TopCategories)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Global {
		return &Global{ChartFormat: "png", ChartWidthIn: 10, ChartHeightIn: 6, TopCategories: 5, SampleRows: 5, LogLevel: "info", LogFormat: "console"}
	}
	cases := []struct {
		name   string
		mutate func(c *Global)
	}{
		{"format", func(c *Global) { c.ChartFormat = "bmp" }},
		{"width", func(c *Global) { c.ChartWidthIn = 0 }},
		{"height", func(c *Global) { c.ChartHeightIn = -1 }},
		{"top", func(c *Global) { c.TopCategories = 0 }},
		{"sample rows", func(c *Global) { c.SampleRows = -1 }},
		{"level", func(c *Global) { c.LogLevel = "loud" }},
		{"log format", func(c *Global) { c.LogFormat = "xml" }},
		{"delimiter", func(c *Global) { c.Delimiter = ";;" }},
	}
	require.NoError(t, base().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateAcceptsRendererFormats(t *testing.T) {
	for _, f := range []string{"png", "SVG", "pdf", "jpg", "jpeg"} {
		c := &Global{ChartFormat: f, ChartWidthIn: 10, ChartHeightIn: 6, TopCategories: 5, LogLevel: "info", LogFormat: "console"}
		assert.NoError(t, c.Validate(), f)
		assert.Equal(t, render.ValidFormat(f), c.Validate() == nil, f)
	}
}

func TestDelimiterRune(t *testing.T) {
	for in, want := range map[string]rune{"": 0, "tab": '\t', `\t`: '\t', ";": ';', "|": '|'} {
		c := &Global{Delimiter: in}
		got, err := c.DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSetGet(t *testing.T) {
	c := &Global{}
	for _, k := range Keys {
		_, err := c.Get(k)
		require.NoError(t, err, k)
	}
	require.NoError(t, c.Set("chart_width_in", "12.5"))
	v, _ := c.Get("chart_width_in")
	assert.Equal(t, "12.5", v)

	assert.Error(t, c.Set("top_categories", "five"))
	assert.Error(t, c.Set("diagnostics", "maybe"))
	assert.Error(t, c.Set("colour", "red"))
	_, err := c.Get("colour")
	assert.Error(t, err)
}
