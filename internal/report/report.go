// Package report renders dashboard panels for display: interactive echarts
// pages, static PNG/SVG/PDF images, plain-text tables for the terminal and
// the server-rendered dashboard page.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
)

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format of a rendered chart.
type Format string

const (
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat parses a format name or file extension ("png", ".svg").
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatHTML, FormatPNG, FormatSVG, FormatPDF, FormatText:
		return f, nil
	case "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Static reports whether f is an image format drawn with gonum/plot.
func (f Format) Static() bool {
	return f == FormatPNG || f == FormatSVG || f == FormatPDF
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Config holds chart rendering parameters.
type Config struct {
	Width  int // pixels (default: 900)
	Height int // pixels (default: 500)
}

// DefaultConfig returns sensible defaults for chart rendering.
func DefaultConfig() Config {
	return Config{Width: 900, Height: 500}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	return c
}

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

// Chart writes one chart to w in format f.
func Chart(w io.Writer, c dashboard.ChartSpec, f Format, cfg Config) error {
	cfg = cfg.withDefaults()
	switch {
	case f == FormatHTML:
		return ChartHTML(w, c, cfg)
	case f.Static():
		return StaticChart(w, c, f, cfg)
	case f == FormatText:
		return WriteChartText(w, c)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Job is one chart to render in a batch.
type Job struct {
	Name      string
	Selection dashboard.Selection
	Format    Format
}

// Result is the output of a Job.
type Result struct {
	Job
	Data []byte
}

// RenderBatch renders jobs concurrently with at most workers in flight.
// Results are returned in job order. The first failure cancels the rest.
func RenderBatch(ctx context.Context, d *dashboard.Dashboard, t *dataset.Table, jobs []Job, cfg Config, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 4
	}
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			panel, err := d.Render(t, job.Selection)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			var buf bytes.Buffer
			for _, c := range panel.Charts {
				if err := Chart(&buf, c, job.Format, cfg); err != nil {
					return fmt.Errorf("%s: %w", job.Name, err)
				}
			}
			results[i] = Result{Job: job, Data: buf.Bytes()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AllJobs returns one job per (view, crop) pair, named "<view>_<crop>.<ext>".
func AllJobs(crops []string, f Format) []Job {
	jobs := make([]Job, 0, len(crops)*len(dashboard.AllViews))
	for _, v := range dashboard.AllViews {
		for _, crop := range crops {
			jobs = append(jobs, Job{
				Name:      fmt.Sprintf("%s_%s.%s", v, fileSafe(crop), extension(f)),
				Selection: dashboard.Selection{View: v, Crop: crop},
				Format:    f,
			})
		}
	}
	return jobs
}

func extension(f Format) string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}

// ════════════════════════════════════════════════════════════════════
// Utility: Timestamp
// ════════════════════════════════════════════════════════════════════

// Timestamp formats t for page and report footers.
func Timestamp(t time.Time) string {
	return t.Format("02 Jan 2006, 03:04 PM")
}
