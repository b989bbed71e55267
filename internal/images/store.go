package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/meleemajors/meleemajors/internal/logger"
)

// DefaultHeight is the card image height in pixels.
const DefaultHeight = 340

// Ext is the extension of cached card images.
const Ext = ".webp"

// Runner runs an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and includes its output in the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(lastLine(out)))
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}

// Store is a name-addressed cache of resized banner images.
type Store struct {
	Dir    string
	Height int
	Runner Runner
	Log    *logger.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, height int, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if log == nil {
		log = logger.Default()
	}
	return &Store{Dir: dir, Height: height, Runner: ExecRunner{}, Log: log}, nil
}

// Path returns the cache path of a named image.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

// Fetch downloads url into <name>.webp unless it is already cached, and
// returns the file name.
func (s *Store) Fetch(ctx context.Context, url, name string) (string, error) {
	file := name + Ext
	target := s.Path(name)

	if _, err := os.Stat(target); err == nil {
		s.Log.Skip("ffmpeg", file+" already exists", nil)
		logger.IncrCounter("images.cached")
		return file, nil
	}

	s.Log.Info("downloading banner", logger.Fields{"url": url, "file": file})
	args := []string{"-y", "-i", url, "-vf", "scale=-1:" + strconv.Itoa(s.Height), target}
	if err := s.Runner.Run(ctx, "ffmpeg", args...); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("resizing %s: %w", url, err)
	}

	s.Log.Success("ffmpeg", "downloaded "+file, nil)
	logger.IncrCounter("images.downloaded")
	return file, nil
}

// Prune removes cached images whose file name is not in keep and returns the
// removed names.
func (s *Store) Prune(keep map[string]bool) ([]string, error) {
	return prune(s.Dir, keep)
}

// Publish mirrors the kept images into dst, removing stale files there.
func (s *Store) Publish(dst string, keep map[string]bool) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	names := make([]string, 0, len(keep))
	for name := range keep {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := filepath.Join(s.Dir, name)
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := copyFile(src, filepath.Join(dst, name)); err != nil {
			return err
		}
	}

	_, err := prune(dst, keep)
	return err
}

func prune(dir string, keep map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext || keep[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, dst)
}
