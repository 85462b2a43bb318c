package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type TailOptions struct {
	StartAtEnd bool
	// StopAtEOF makes Next return io.EOF instead of waiting for more data.
	StopAtEOF bool
	MinDelay  time.Duration
	MaxDelay  time.Duration
	Step      time.Duration
}

// Tailer follows a single growing file and hands out complete lines in
// append order.
type Tailer struct {
	path    string
	opts    TailOptions
	logger  *slog.Logger
	file    *os.File
	info    os.FileInfo
	reader  *bufio.Reader
	offset  int64
	pending []byte
	backoff *Backoff
}

func NewTailer(path string, opts TailOptions, logger *slog.Logger) *Tailer {
	return &Tailer{
		path:    path,
		opts:    opts,
		logger:  logger,
		backoff: NewBackoff(opts.MinDelay, opts.MaxDelay, opts.Step),
	}
}

// Open opens the file and, unless told otherwise, positions the tailer at
// its current end so existing content is never emitted.
func (t *Tailer) Open() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	var offset int64
	if t.opts.StartAtEnd {
		pos, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("seek %s: %w", t.path, err)
		}
		offset = pos
	}
	t.file = f
	t.info = info
	t.offset = offset
	t.reader = bufio.NewReader(f)
	t.pending = t.pending[:0]
	t.backoff.Reset()
	if t.logger != nil {
		t.logger.Info("tail opened", "path", t.path, "offset", offset, "start_at_end", t.opts.StartAtEnd)
	}
	return nil
}

func (t *Tailer) Offset() int64 {
	return t.offset
}

// Next blocks until a full line is available and returns it without the
// line terminator. It returns ctx.Err() when the context ends first.
func (t *Tailer) Next(ctx context.Context) (string, error) {
	if t.file == nil {
		return "", errors.New("tailer not open")
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk, err := t.reader.ReadString('\n')
		if len(chunk) > 0 {
			t.offset += int64(len(chunk))
			t.pending = append(t.pending, chunk...)
		}
		if err == nil {
			t.backoff.Reset()
			return t.takeLine(), nil
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", t.path, err)
		}
		if t.opts.StopAtEOF {
			if len(t.pending) > 0 {
				return t.takeLine(), nil
			}
			return "", io.EOF
		}
		if !BackoffSleep(ctx, t.backoff.Next()) {
			return "", ctx.Err()
		}
		if line, ok := t.checkRotation(); ok {
			return line, nil
		}
	}
}

func (t *Tailer) takeLine() string {
	line := strings.TrimRight(string(t.pending), "\r\n")
	t.pending = t.pending[:0]
	return line
}

// checkRotation reopens the path when it names a new file and rewinds when
// the current file was truncated beneath the read offset. The old file is
// only abandoned once everything written to it has been read; an
// unterminated last line is handed back so it is not glued onto the first
// line of the new file.
func (t *Tailer) checkRotation() (string, bool) {
	info, err := os.Stat(t.path)
	if err != nil {
		return "", false
	}
	if !os.SameFile(info, t.info) {
		if cur, err := t.file.Stat(); err == nil && cur.Size() > t.offset {
			return "", false
		}
		f, err := os.Open(t.path)
		if err != nil {
			if t.logger != nil {
				t.logger.Warn("tail reopen failed", "path", t.path, "err", err)
			}
			return "", false
		}
		newInfo, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return "", false
		}
		if t.logger != nil {
			t.logger.Info("tail file rotated, reopening", "path", t.path, "previous_offset", t.offset)
		}
		var leftover string
		hasLeftover := len(t.pending) > 0
		if hasLeftover {
			leftover = t.takeLine()
		}
		_ = t.file.Close()
		t.file = f
		t.info = newInfo
		t.reader.Reset(f)
		t.offset = 0
		t.backoff.Reset()
		return leftover, hasLeftover
	}
	if info.Size() < t.offset {
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return "", false
		}
		if t.logger != nil {
			t.logger.Info("tail file truncated, rewinding", "path", t.path, "previous_offset", t.offset)
		}
		t.reader.Reset(t.file)
		t.offset = 0
		t.pending = t.pending[:0]
	}
	return "", false
}

func (t *Tailer) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
