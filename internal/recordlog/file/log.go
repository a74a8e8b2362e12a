// Package file implements the durable append-only record log on the local
// filesystem. Each record is one "<STATE> <URL>\n" line written in a single
// write and fsynced before Append returns.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

const tailChunk = 4096

// Config captures the parameters for the file-backed record log.
type Config struct {
	// Path is the record log file. It is created when missing.
	Path string `mapstructure:"path" yaml:"path"`
}

// Log appends records to a file. It is not safe for concurrent Append calls;
// readers may open the path independently at any time.
type Log struct {
	path   string
	f      *os.File
	logger *zap.Logger
}

// Open opens (creating if needed) the record log at cfg.Path. An unterminated
// trailing line left by an interrupted append is truncated away so the next
// record starts on a fresh line.
func Open(cfg Config, logger *zap.Logger) (*Log, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("record log path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create record log dir: %w", err)
		}
	}
	// #nosec G304 -- the log path comes from operator configuration.
	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	l := &Log{path: cfg.Path, f: f, logger: logger}
	if err := l.repairTail(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes rec as one line and syncs it to stable storage.
func (l *Log) Append(ctx context.Context, rec crawler.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append canceled: %w", err)
	}
	line, err := rec.Line()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync record log: %w", err)
	}
	return nil
}

// LoadAll reads every acknowledged record from the file.
func (l *Log) LoadAll(ctx context.Context) ([]crawler.Record, error) {
	return ReadAll(ctx, l.path)
}

// Close closes the underlying file.
func (l *Log) Close() error {
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("close record log: %w", err)
	}
	return nil
}

func (l *Log) repairTail() error {
	info, err := l.f.Stat()
	if err != nil {
		return fmt.Errorf("stat record log: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return nil
	}
	keep, err := lastLineEnd(l.f, size)
	if err != nil {
		return err
	}
	if keep == size {
		return nil
	}
	l.logger.Warn("truncating unterminated record log tail",
		zap.String("path", l.path),
		zap.Int64("dropped_bytes", size-keep),
	)
	if err := l.f.Truncate(keep); err != nil {
		return fmt.Errorf("truncate torn record: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync record log: %w", err)
	}
	return nil
}

// lastLineEnd returns the offset just past the final newline in the first
// size bytes of r, or 0 when there is none.
func lastLineEnd(r io.ReaderAt, size int64) (int64, error) {
	buf := make([]byte, tailChunk)
	end := size
	for end > 0 {
		start := end - tailChunk
		if start < 0 {
			start = 0
		}
		chunk := buf[:end-start]
		if _, err := r.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read record log tail: %w", err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// ReadPrefix returns the file's stable prefix: every byte up to and
// including the last newline. It is safe while another process appends.
func ReadPrefix(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read canceled: %w", err)
	}
	// #nosec G304 -- the log path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record log: %w", err)
	}
	return data[:bytes.LastIndexByte(data, '\n')+1], nil
}

// ReadAll decodes every acknowledged record in the file at path.
func ReadAll(ctx context.Context, path string) ([]crawler.Record, error) {
	data, err := ReadPrefix(ctx, path)
	if err != nil {
		return nil, err
	}
	records, err := crawler.ReadRecords(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
