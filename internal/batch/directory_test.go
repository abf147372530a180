package batch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/batch"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
)

type fakeValidator struct {
	calls atomic.Int32
}

func (f *fakeValidator) Validate(_ context.Context, filename string, _ []byte) (*pipeline.Result, error) {
	f.calls.Add(1)
	if strings.HasPrefix(filename, "broken") {
		return nil, errors.New("unreadable document")
	}
	res := &pipeline.Result{Filename: filename, Extraction: pipeline.Extraction{PageCount: 3}}
	if strings.HasPrefix(filename, "bad") {
		res.Findings = []entity.Finding{
			{Severity: constants.SeverityCritical, Category: "identity", Message: "missing UNIVERZA V LJUBLJANI"},
			{PageNumber: 2, Severity: constants.SeverityMinor, Category: "formatting", Message: "margins"},
		}
	}
	return res, nil
}

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"good.pdf",
		"bad.pdf",
		"broken.pdf",
		"notes.txt",
		".hidden.pdf",
		filepath.Join("sub", "other.PDF"),
		filepath.Join(".cache", "cached.pdf"),
	}
	for _, name := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	}
	return root
}

func TestDiscover(t *testing.T) {
	root := tree(t)

	paths, stats, err := batch.Discover(root, true)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
	assert.Equal(t, uint32(5), stats.Scanned)
	assert.Equal(t, uint32(4), stats.Matched)
	for _, p := range paths {
		assert.False(t, strings.HasPrefix(filepath.Base(p), "."), p)
		assert.NotContains(t, p, ".cache")
	}

	all, stats, err := batch.Discover(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, uint32(7), stats.Scanned)
}

func TestDiscover_Errors(t *testing.T) {
	_, _, err := batch.Discover("  ", false)
	require.Error(t, err)

	_, _, err = batch.Discover(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
}

func TestCheckDirectory(t *testing.T) {
	root := tree(t)
	v := &fakeValidator{}

	results, stats, err := batch.CheckDirectory(context.Background(), v, root, batch.Options{Workers: 2, SkipHidden: true}, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(4), v.calls.Load())
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, uint32(1), stats.Critical)

	byName := map[string]batch.FileResult{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	assert.Equal(t, "unreadable document", byName["broken.pdf"].Err)
	assert.True(t, byName["bad.pdf"].Critical())
	assert.False(t, byName["good.pdf"].Critical())
	assert.Equal(t, 3, byName["other.PDF"].Pages)
}

func TestRun_PreservesOrderAndHonoursCancel(t *testing.T) {
	root := tree(t)
	paths := []string{filepath.Join(root, "good.pdf"), filepath.Join(root, "bad.pdf")}

	results := batch.Run(context.Background(), &fakeValidator{}, paths, 0, nil)
	require.Len(t, results, 2)
	assert.Equal(t, paths[0], results[0].Path)
	assert.Equal(t, paths[1], results[1].Path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := &fakeValidator{}
	results = batch.Run(ctx, v, paths, 1, nil)
	for _, r := range results {
		assert.Equal(t, context.Canceled.Error(), r.Err)
	}
	assert.Zero(t, v.calls.Load())
}

func TestWriteSummary(t *testing.T) {
	results := []batch.FileResult{
		{Path: "a/bad.pdf", Pages: 3, Findings: []entity.Finding{
			{Severity: constants.SeverityCritical, Category: "identity", Message: "missing"},
			{PageNumber: 4, Severity: constants.SeverityMinor, Category: "formatting", Message: "margins"},
		}},
		{Path: "a/broken.pdf", Err: "unreadable document"},
	}
	var buf bytes.Buffer
	require.NoError(t, batch.WriteSummary(&buf, results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	files, err := f.GetRows("Files")
	require.NoError(t, err)
	require.Len(t, files, 3)
	require.GreaterOrEqual(t, len(files[1]), 6)
	assert.Equal(t, []string{"a/bad.pdf", "3", "1", "0", "1", "2"}, files[1][:6])
	assert.Equal(t, "unreadable document", files[2][6])

	errs, err := f.GetRows("Errors")
	require.NoError(t, err)
	require.Len(t, errs, 3)
	assert.Equal(t, []string{"a/bad.pdf", "5", "MINOR", "formatting", "margins"}, errs[2])
}
