package gen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Printer renders an artifact in dry-run mode.
type Printer func(w io.Writer, a *Artifact) error

// PlainPrinter prints a path banner followed by the artifact content.
func PlainPrinter(w io.Writer, a *Artifact) error {
	if _, err := fmt.Fprintf(w, "==> %s <==\n", a.Path); err != nil {
		return err
	}
	if _, err := w.Write(a.Content); err != nil {
		return err
	}
	if n := len(a.Content); n > 0 && a.Content[n-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

// WriterMetrics tracks what a Writer did.
type WriterMetrics struct {
	FilesWritten int
	FilesPrinted int
	TotalBytes   int64
}

// Writer writes generated artifacts below Dir. Each artifact is written
// atomically: it is staged in a temporary file next to its destination and
// renamed over it, so readers never observe a partially written file.
// Existing files are overwritten without diffing.
type Writer struct {
	// Dir is the output directory.
	Dir string
	// DryRun prints the artifacts to Out instead of writing them.
	DryRun bool
	// Out receives dry-run output. Defaults to os.Stdout.
	Out io.Writer
	// Printer renders dry-run artifacts. Defaults to PlainPrinter.
	Printer Printer
	// Logger receives one entry per artifact. Defaults to a no-op logger.
	Logger *zap.Logger

	mu      sync.Mutex
	metrics WriterMetrics
}

// Metrics returns a copy of the writer metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write writes the artifacts of every result. A failing artifact aborts
// the rest of its collection; other collections are still written and
// artifacts already written are kept. Errors are joined in result order.
func (w *Writer) Write(results ...*Result) error {
	if !w.DryRun && w.Dir == "" {
		return NewConfigError("Dir", nil, "output directory cannot be empty")
	}
	var errs []error
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, a := range r.Artifacts {
			if err := w.WriteArtifact(a); err != nil {
				w.logger().Error("artifact not written",
					zap.String("collection", r.Collection), zap.String("path", a.Path), zap.Error(err))
				errs = append(errs, fmt.Errorf("collection %s: %w", r.Collection, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteArtifact writes or prints a single artifact.
func (w *Writer) WriteArtifact(a *Artifact) error {
	if w.DryRun {
		p := w.Printer
		if p == nil {
			p = PlainPrinter
		}
		out := w.Out
		if out == nil {
			out = os.Stdout
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if err := p(out, a); err != nil {
			return NewIOError("print", a.Path, err)
		}
		w.metrics.FilesPrinted++
		return nil
	}
	target, err := w.target(a.Path)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(target, a.Content); err != nil {
		return err
	}
	w.logger().Info("artifact written", zap.String("path", target), zap.Int("bytes", len(a.Content)))
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(a.Content))
	w.mu.Unlock()
	return nil
}

// target resolves an artifact path below Dir.
func (w *Writer) target(rel string) (string, error) {
	p := filepath.Join(w.Dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(w.Dir, p)
	if err != nil || r == ".." || filepath.IsAbs(rel) || len(r) > 2 && r[:3] == ".."+string(filepath.Separator) {
		return "", NewIOError("resolve", rel, errors.New("path escapes the output directory"))
	}
	return p, nil
}

func (w *Writer) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// writeFileAtomic stages data in a temporary file in the destination
// directory and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewIOError("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return NewIOError("create", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return NewIOError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return NewIOError("sync", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return NewIOError("chmod", path, err)
	}
	if err := tmp.Close(); err != nil {
		return NewIOError("close", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return NewIOError("rename", path, err)
	}
	return nil
}
