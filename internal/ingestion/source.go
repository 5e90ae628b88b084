// Package ingestion provides line sources for the analyzer: single files,
// followed files, directories selected by a glob pattern, and stdin.
//
// Sources hand lines over one at a time and never buffer the input.
package ingestion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	analyzererrors "log-analyzer/internal/errors"
	"log-analyzer/internal/models"

	"github.com/nxadm/tail"
	"go.uber.org/zap"
)

// MaxLineSize is the longest line a source accepts.
const MaxLineSize = 1024 * 1024

// Source is the interface that line sources must implement.
type Source interface {
	// Read sends each line to the provided channel in input order.
	// It returns when the context is cancelled or the source is exhausted.
	Read(ctx context.Context, lines chan<- models.RawLine) error

	// Name returns a human-readable name for this source.
	Name() string

	// Close releases any resources held by the source.
	Close() error
}

// FileSource reads lines from a single file.
type FileSource struct {
	path   string
	follow bool
	logger *zap.Logger
}

// NewFileSource creates a new file source. With follow set, the file is
// tailed until the context is cancelled.
func NewFileSource(path string, follow bool, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   path,
		follow: follow,
		logger: logger,
	}
}

// Name returns the source name.
func (f *FileSource) Name() string {
	return fmt.Sprintf("file:%s", f.path)
}

// Read reads lines from the file.
func (f *FileSource) Read(ctx context.Context, lines chan<- models.RawLine) error {
	if f.follow {
		return f.readFollow(ctx, lines)
	}
	return readFile(ctx, f.path, lines)
}

// readFollow tails the file from its beginning and keeps following it.
func (f *FileSource) readFollow(ctx context.Context, lines chan<- models.RawLine) error {
	if _, err := os.Stat(f.path); err != nil {
		return openError(f.path, err)
	}

	t, err := tail.TailFile(f.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return analyzererrors.NewIngestReadError(f.Name(), err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	lineNum := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				f.logger.Warn("tail_line_error", zap.String("path", f.path), zap.Error(line.Err))
				continue
			}
			lineNum++
			raw := models.RawLine{
				Source: f.path,
				Number: lineNum,
				Text:   strings.TrimSuffix(line.Text, "\r"),
			}
			if err := send(ctx, lines, raw); err != nil {
				return err
			}
		}
	}
}

// Close releases resources.
func (f *FileSource) Close() error {
	return nil
}

// MultiFileSource reads several files one after another.
type MultiFileSource struct {
	paths  []string
	logger *zap.Logger
}

// NewMultiFileSource creates a source over paths, read in the given order.
func NewMultiFileSource(paths []string, logger *zap.Logger) *MultiFileSource {
	return &MultiFileSource{
		paths:  paths,
		logger: logger,
	}
}

// Name returns the source name.
func (m *MultiFileSource) Name() string {
	return fmt.Sprintf("files:%d", len(m.paths))
}

// Read reads every file in order. Line numbers restart in each file.
func (m *MultiFileSource) Read(ctx context.Context, lines chan<- models.RawLine) error {
	for _, path := range m.paths {
		m.logger.Debug("reading_file", zap.String("path", path))
		if err := readFile(ctx, path, lines); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources.
func (m *MultiFileSource) Close() error {
	return nil
}

// StdinSource reads lines from standard input.
type StdinSource struct {
	reader io.Reader
	logger *zap.Logger
}

// NewStdinSource creates a new stdin source.
func NewStdinSource(logger *zap.Logger) *StdinSource {
	return &StdinSource{reader: os.Stdin, logger: logger}
}

// NewReaderSource creates a source that reads from r and reports itself as stdin.
func NewReaderSource(r io.Reader, logger *zap.Logger) *StdinSource {
	return &StdinSource{reader: r, logger: logger}
}

// Name returns the source name.
func (s *StdinSource) Name() string {
	return "stdin"
}

// Read reads lines from stdin.
func (s *StdinSource) Read(ctx context.Context, lines chan<- models.RawLine) error {
	if err := scanLines(ctx, s.reader, "stdin", lines); err != nil {
		return wrapReadError(s.Name(), err)
	}
	return nil
}

// Close releases resources.
func (s *StdinSource) Close() error {
	return nil
}

// readFile streams a single file into lines.
func readFile(ctx context.Context, path string, lines chan<- models.RawLine) error {
	file, err := os.Open(path)
	if err != nil {
		return openError(path, err)
	}
	defer file.Close()

	if err := scanLines(ctx, file, path, lines); err != nil {
		return wrapReadError("file:"+path, err)
	}
	return nil
}

// scanLines sends r line by line, terminators stripped. A line longer than
// MaxLineSize is cut, marked Truncated, and the pass carries on with the
// next line.
func scanLines(ctx context.Context, r io.Reader, source string, lines chan<- models.RawLine) error {
	reader := bufio.NewReaderSize(r, 64*1024)

	lineNum := 0
	for {
		text, truncated, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		lineNum++
		raw := models.RawLine{Source: source, Number: lineNum, Text: text, Truncated: truncated}
		if err := send(ctx, lines, raw); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator, keeping at most
// MaxLineSize bytes. The rest of an oversized line is read and dropped.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	truncated := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || truncated) {
				return string(buf), truncated, nil
			}
			return "", false, err
		}

		if room := MaxLineSize - len(buf); len(chunk) > room {
			buf = append(buf, chunk[:room]...)
			truncated = true
		} else {
			buf = append(buf, chunk...)
		}

		if !isPrefix {
			return string(buf), truncated, nil
		}
	}
}

func send(ctx context.Context, lines chan<- models.RawLine, line models.RawLine) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case lines <- line:
		return nil
	}
}

// Stat describes path, mapping failures the same way opening does.
func Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, openError(path, err)
	}
	return info, nil
}

// openError maps an open/stat failure to a coded error.
func openError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return analyzererrors.NewIngestFileNotFoundError(path)
	case errors.Is(err, fs.ErrPermission):
		return analyzererrors.NewIngestPermissionDeniedError(path)
	default:
		return analyzererrors.NewIngestReadError("file:"+path, err)
	}
}

// wrapReadError leaves context errors untouched so callers can tell a
// cancelled pass from a failed one.
func wrapReadError(source string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return analyzererrors.NewIngestReadError(source, err)
}
