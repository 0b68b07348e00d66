// pkg/charts/renderer.go
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
)

// ErrNothingToPlot is returned when filtering leaves no data for a chart
var ErrNothingToPlot = errors.New("nothing to plot")

// Output folders under the output root
const (
	CompareFolder   = "accidents compare to non-accidents graphs"
	AccidentsFolder = "accidents graphs"
	logSuffix       = " log"
)

// Emission axis labels
const (
	labelKg    = "פליטה (Kg)"
	labelLogKg = "פליטה (log Kg)"
	labelTotal = "סך פליטה (Kg)"
)

var (
	colorRoutine  = drawing.ColorFromHex("1f77b4")
	colorAccident = drawing.ColorFromHex("ff7f0e")

	// categorical palette for violins and scatter dots
	palette = []drawing.Color{
		drawing.ColorFromHex("66c2a5"),
		drawing.ColorFromHex("fc8d62"),
		drawing.ColorFromHex("8da0cb"),
		drawing.ColorFromHex("e78ac3"),
		drawing.ColorFromHex("a6d854"),
		drawing.ColorFromHex("ffd92f"),
		drawing.ColorFromHex("e5c494"),
		drawing.ColorFromHex("b3b3b3"),
	}
)

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// Options configures the rendered image
type Options struct {
	Width    int
	Height   int
	FontPath string // optional TTF with Hebrew glyphs
}

// DefaultOptions returns the default canvas size
func DefaultOptions() Options {
	return Options{Width: 1600, Height: 900}
}

// Renderer writes PNG charts into folders under an output root
type Renderer struct {
	logger *zap.Logger
	opts   Options
	font   *truetype.Font
	root   string
}

// NewRenderer loads the configured font, falling back to the go-chart default
func NewRenderer(logger *zap.Logger, root string, opts Options) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}

	r := &Renderer{
		logger: logger.Named("charts"),
		opts:   opts,
		root:   root,
	}

	if opts.FontPath != "" {
		data, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read chart font: %w", err)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse chart font %s: %w", opts.FontPath, err)
		}
		r.font = f
		r.logger.Debug("Loaded chart font", zap.String("path", opts.FontPath))
		return r, nil
	}

	f, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load default chart font: %w", err)
	}
	r.font = f
	return r, nil
}

// Root returns the output root
func (r *Renderer) Root() string { return r.root }

// folder returns the folder for a chart family, with the log suffix when needed
func folder(name string, log bool) string {
	if log {
		return name + logSuffix
	}
	return name
}

// save renders into memory first so a failed render leaves no partial file
func (r *Renderer) save(dir, name string, render func(w *bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", name, err)
	}

	full := filepath.Join(r.root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chart folder: %w", err)
	}
	path := filepath.Join(full, FileName(name)+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}

	r.logger.Info("Chart saved", zap.String("path", path))
	return path, nil
}

// FileName turns a chart title into a safe file name
func FileName(title string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "",
		"\"", "", "<", "", ">", "", "|", "-",
	)
	name := strings.TrimSpace(replacer.Replace(title))
	if name == "" {
		return "chart"
	}
	return name
}

// legend draws colour swatches in the top right corner of the canvas
func (r *Renderer) legend(entries []legendEntry) chart.Renderable {
	return func(rd chart.Renderer, box chart.Box, defaults chart.Style) {
		x := box.Right - 260
		y := box.Top + 8
		rd.SetFont(r.font)
		rd.SetFontSize(10)
		rd.SetFontColor(chart.ColorBlack)
		for _, e := range entries {
			rd.SetFillColor(e.color)
			rd.SetStrokeColor(e.color)
			rd.SetStrokeWidth(1)
			rd.MoveTo(x, y)
			rd.LineTo(x+12, y)
			rd.LineTo(x+12, y+12)
			rd.LineTo(x, y+12)
			rd.Close()
			rd.FillStroke()
			rd.Text(e.label, x+18, y+11)
			y += 18
		}
	}
}

type legendEntry struct {
	label string
	color drawing.Color
}
