// Package emit writes a built site to disk. All writes go into a staging
// directory next to the output directory which is promoted in one rename on
// Commit. Abort removes the staging directory and leaves the previous output
// untouched.
package emit

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DefaultConcurrency bounds parallel file writes.
const DefaultConcurrency = 8

// File is one output file, Path relative to the locale root using slashes.
type File struct {
	Path string
	Data []byte
}

// Stager owns the staging directory of one emission.
type Stager struct {
	outputDir   string
	stageDir    string
	concurrency int
	logger      *slog.Logger

	mu   sync.Mutex
	done bool
}

// Begin creates a fresh staging directory "<output>_stage" as a sibling of
// outputDir. A stale staging directory from an interrupted run is replaced.
func Begin(outputDir string, logger *slog.Logger) (*Stager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	outputDir = filepath.Clean(outputDir)
	stage := outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "remove stale staging directory").WithPath(stage).Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create staging directory").WithPath(stage).Build()
	}
	logger.Debug("Initialized staging directory", slog.String("staging", stage), slog.String("final", outputDir))
	return &Stager{outputDir: outputDir, stageDir: stage, concurrency: DefaultConcurrency, logger: logger}, nil
}

// OutputDir returns the final output directory.
func (s *Stager) OutputDir() string { return s.outputDir }

// StageDir returns the staging directory.
func (s *Stager) StageDir() string { return s.stageDir }

// SetConcurrency changes the write parallelism. Values below 1 are ignored.
func (s *Stager) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// WriteFiles writes files under prefix in parallel. Paths must be distinct.
func (s *Stager) WriteFiles(ctx context.Context, prefix string, files []File) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst, err := s.target(prefix, f.Path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithPath(dst).Build()
			}
			if err := os.WriteFile(dst, f.Data, 0o644); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "write output file").WithPath(dst).Build()
			}
			return nil
		})
	}
	return g.Wait()
}

// CopyStatic copies every file of the static directories under prefix and
// returns the number of files copied. Later directories overwrite earlier
// ones. Missing directories are skipped.
func (s *Stager) CopyStatic(ctx context.Context, prefix string, dirs []string) (int, error) {
	count := 0
	for _, dir := range dirs {
		files, err := ListStatic(dir)
		if err != nil {
			return count, err
		}
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			dst, err := s.target(prefix, rel)
			if err != nil {
				return count, err
			}
			if err := copyFile(filepath.Join(dir, filepath.FromSlash(rel)), dst); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// Commit promotes the staging directory to the output directory. An existing
// output directory is moved to "<output>.prev" first and removed afterwards.
func (s *Stager) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return errors.InternalError("staging directory already finalized").Build()
	}

	prev := s.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		s.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	if _, err := os.Stat(s.outputDir); err == nil {
		if err := os.Rename(s.outputDir, prev); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "back up existing output").WithPath(s.outputDir).Build()
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.outputDir), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output parent").WithPath(s.outputDir).Build()
	}
	if err := os.Rename(s.stageDir, s.outputDir); err != nil {
		// Put the previous output back so a failed promotion changes nothing.
		if _, statErr := os.Stat(prev); statErr == nil {
			_ = os.Rename(prev, s.outputDir)
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "promote staging directory").WithPath(s.outputDir).Build()
	}
	s.done = true
	if err := os.RemoveAll(prev); err != nil {
		s.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	s.logger.Info("Promoted staging directory", logfields.Path(s.outputDir))
	return nil
}

// Abort removes the staging directory. It is a no-op after Commit.
func (s *Stager) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	if err := os.RemoveAll(s.stageDir); err != nil {
		s.logger.Warn("Failed to remove staging directory after abort", slog.String("staging", s.stageDir), logfields.Error(err))
		return
	}
	s.logger.Debug("Removed staging directory after abort", slog.String("staging", s.stageDir))
}

// ListStatic returns the files below dir as sorted slash separated relative
// paths. A missing directory yields no files.
func ListStatic(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat static directory").WithPath(dir).Build()
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("static path is not a directory").WithPath(dir).Build()
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "walk static directory").WithPath(dir).Build()
	}
	sort.Strings(files)
	return files, nil
}

func (s *Stager) target(prefix, rel string) (string, error) {
	clean := filepath.Clean(filepath.Join(prefix, filepath.FromSlash(strings.TrimPrefix(rel, "/"))))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errors.FileSystemError(fmt.Sprintf("output path %q escapes the output directory", rel)).Build()
	}
	return filepath.Join(s.stageDir, clean), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "open static file").WithPath(src).Build()
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithPath(dst).Build()
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output file").WithPath(dst).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "copy static file").WithPath(src).Build()
	}
	if err := out.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "close output file").WithPath(dst).Build()
	}
	return nil
}
