// Package batch validates every thesis PDF under a directory tree.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
)

// Validator runs extraction and judgment for one document. *pipeline.Processor implements it.
type Validator interface {
	Validate(ctx context.Context, filename string, data []byte) (*pipeline.Result, error)
}

type FileResult struct {
	Path     string
	Pages    int
	Findings []entity.Finding
	Err      string
}

// Critical reports whether the file has at least one CRITICAL finding.
func (r FileResult) Critical() bool {
	return entity.SeverityCounts(r.Findings)[constants.SeverityCritical] > 0
}

type DirStats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	Failed    uint32 `json:"failed"`
	Critical  uint32 `json:"critical"`
}

type Options struct {
	Workers    int
	SkipHidden bool
}

// Discover walks root and returns the PDF files under it in walk order. Scanned counts
// every regular file seen, Matched the ones returned.
func Discover(root string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	var (
		paths []string
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !constants.IsAllowedDocument(path) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk: %w", err)
	}
	return paths, stats, nil
}

// CheckDirectory discovers the PDFs under root and validates them with at most
// opts.Workers in flight. Per-file failures are recorded in the results; only a
// walk error or ctx cancellation is returned.
func CheckDirectory(ctx context.Context, v Validator, root string, opts Options, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	paths, stats, err := Discover(root, opts.SkipHidden)
	if err != nil {
		return nil, stats, err
	}
	logger.Info("batch.start", "root", root, "matched", stats.Matched, "workers", opts.Workers)

	results := Run(ctx, v, paths, opts.Workers, logger)
	for _, r := range results {
		if r.Err != "" {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		if r.Critical() {
			stats.Critical++
		}
	}
	logger.Info("batch.done",
		"root", root,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"critical", stats.Critical,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, stats, ctx.Err()
}

// Run validates paths concurrently and returns one result per path, in input order.
func Run(ctx context.Context, v Validator, paths []string, workers int, logger *slog.Logger) []FileResult {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = checkFile(gctx, v, path, logger)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func checkFile(ctx context.Context, v Validator, path string, logger *slog.Logger) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path, Err: err.Error()}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("batch.file.read_failed", "path", path, "error", err)
		return FileResult{Path: path, Err: err.Error()}
	}
	res, err := v.Validate(ctx, filepath.Base(path), data)
	if err != nil {
		logger.Warn("batch.file.failed", "path", path, "error", err)
		return FileResult{Path: path, Err: err.Error()}
	}
	logger.Debug("batch.file.ok", "path", path, "findings", len(res.Findings))
	return FileResult{Path: path, Pages: res.Extraction.PageCount, Findings: res.Findings}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
