package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

// StoredFile describes a persisted upload.
type StoredFile struct {
	Path        string
	Size        int64
	ContentHash string
}

// FileStore writes uploads and rendered artifacts into two directories, one file per job, never rewritten.
type FileStore struct {
	uploadDir string
	outputDir string
	log       *slog.Logger
}

// NewFileStore creates both directories if needed.
func NewFileStore(uploadDir, outputDir string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	for _, dir := range []string{uploadDir, outputDir} {
		if dir == "" {
			return nil, fmt.Errorf("storage directory must be set")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FileStore{uploadDir: uploadDir, outputDir: outputDir, log: log}, nil
}

// UploadPath is where the upload for jobID named filename lives.
func (s *FileStore) UploadPath(jobID, filename string) string {
	return filepath.Join(s.uploadDir, jobID+"_"+safeBase(filename))
}

// ArtifactPath is where the rendered report for jobID lives.
func (s *FileStore) ArtifactPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID+"_report"+constants.ArtifactExt)
}

// SaveUpload copies r into the upload directory, hashing it on the way.
func (s *FileStore) SaveUpload(jobID, filename string, r io.Reader) (StoredFile, error) {
	path := s.UploadPath(jobID, filename)
	h := sha256.New()
	n, err := s.writeOnce(path, func(w io.Writer) error {
		_, err := io.Copy(io.MultiWriter(w, h), r)
		return err
	})
	if err != nil {
		return StoredFile{}, err
	}
	out := StoredFile{Path: path, Size: n, ContentHash: hex.EncodeToString(h.Sum(nil))}
	s.log.Info("storage.upload.saved", "job_id", jobID, "path", path, "bytes", n, "sha256", out.ContentHash)
	return out, nil
}

// WriteArtifact creates the artifact for jobID by handing a writer to write.
func (s *FileStore) WriteArtifact(jobID string, write func(io.Writer) error) (string, error) {
	path := s.ArtifactPath(jobID)
	n, err := s.writeOnce(path, write)
	if err != nil {
		return "", err
	}
	s.log.Info("storage.artifact.saved", "job_id", jobID, "path", path, "bytes", n)
	return path, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (s *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) writeOnce(path string, write func(io.Writer) error) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	cw := &countingWriter{w: f}
	if err := write(cw); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// safeBase keeps the client filename readable while stripping anything path-like.
func safeBase(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" || name == "/" {
		return "upload" + constants.ArtifactExt
	}
	return name
}
