// Package poppler rasterises PDF pages with the pdftoppm tool from poppler-utils.
package poppler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.PageRenderer = (*Renderer)(nil)

// DefaultBinary is the rasteriser looked up on PATH.
const DefaultBinary = "pdftoppm"

// ErrPDFToolNotFound is returned when pdftoppm is not installed.
var ErrPDFToolNotFound = errors.New("pdftoppm not found: install poppler-utils")

// pdftoppm names pages {prefix}-{n}.png with n zero-padded to the page count width.
var pageSuffix = regexp.MustCompile(`-(\d+)\.png$`)

// CommandRunner runs an external command and returns its stderr.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Renderer shells out to pdftoppm.
type Renderer struct {
	binary string
	runner CommandRunner
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBinary sets the pdftoppm path.
func WithBinary(path string) Option {
	return func(r *Renderer) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithRunner replaces command execution, mainly for tests.
func WithRunner(runner CommandRunner) Option {
	return func(r *Renderer) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{binary: DefaultBinary, runner: execRunner{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes page_NNN.png for every page into outDir. Pages are first
// rendered into a scratch directory so a failed run never leaves a partial
// set of renamed pages behind.
func (r *Renderer) Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]domain.PageImage, error) {
	if dpi <= 0 {
		dpi = domain.DefaultDPI
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages directory: %w", err)
	}
	scratch, err := os.MkdirTemp(outDir, ".render-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	prefix := filepath.Join(scratch, "page")
	stderr, err := r.runner.Run(ctx, r.binary, "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrPDFToolNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(pdfPath), domain.ErrPDFUnreadable,
			strings.TrimSpace(string(stderr)))
	}

	rendered, err := collect(scratch)
	if err != nil {
		return nil, err
	}
	if len(rendered) == 0 {
		return nil, fmt.Errorf("%s: no pages rendered: %w", filepath.Base(pdfPath), domain.ErrPDFUnreadable)
	}

	pages := make([]domain.PageImage, 0, len(rendered))
	for _, p := range rendered {
		dest := filepath.Join(outDir, domain.PageFileName(p.index))
		if err := os.Rename(p.path, dest); err != nil {
			return nil, fmt.Errorf("move page %d: %w", p.index, err)
		}
		pages = append(pages, domain.PageImage{Index: p.index, Path: dest, DPI: dpi})
	}
	logger.Debug("render: %d pages at %d dpi", len(pages), dpi)
	return pages, nil
}

type renderedPage struct {
	index int
	path  string
}

func collect(dir string) ([]renderedPage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	var pages []renderedPage
	for _, e := range entries {
		m := pageSuffix.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		pages = append(pages, renderedPage{index: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })
	return pages, nil
}
