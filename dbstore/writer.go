package dbstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/seqsearch/codec"
	"github.com/hupe1980/seqsearch/internal/fs"
	"github.com/hupe1980/seqsearch/internal/hash"
	"github.com/hupe1980/seqsearch/internal/resource"
)

type writerOptions struct {
	fs          fs.FileSystem
	compression Compression
	codec       codec.Codec
	rc          *resource.Controller
	ctx         context.Context
	logger      *slog.Logger
}

// WriterOption configures Create.
type WriterOption func(*writerOptions)

// WithFileSystem sets the file system used for all writer files.
func WithFileSystem(f fs.FileSystem) WriterOption {
	return func(o *writerOptions) {
		if f != nil {
			o.fs = f
		}
	}
}

// WithCompression sets the record compression.
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) {
		o.compression = c
	}
}

// WithCodec sets the manifest codec.
func WithCodec(c codec.Codec) WriterOption {
	return func(o *writerOptions) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithIOLimit throttles record writes through rc. ctx bounds the waits.
func WithIOLimit(ctx context.Context, rc *resource.Controller) WriterOption {
	return func(o *writerOptions) {
		o.rc = rc
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithWriterLogger sets the logger.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type slotWriter struct {
	path    string
	file    fs.File
	w       *bufio.Writer
	offset  int64
	entries []entry
	scratch []byte
}

// Writer creates a database. Write calls for distinct slots may run
// concurrently; a single slot must not be used concurrently.
type Writer struct {
	path   string
	opts   writerOptions
	slots  []*slotWriter
	closed atomic.Bool
}

// Create starts a new database at path with the given number of slots.
// Existing files at path are replaced on Close.
func Create(path string, slots int, opts ...WriterOption) (*Writer, error) {
	if slots <= 0 {
		return nil, fmt.Errorf("%w: need at least one slot, got %d", ErrInvalidSlot, slots)
	}

	o := writerOptions{
		fs:     fs.Default,
		codec:  codec.Default,
		ctx:    context.Background(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.compression > CompressionZSTD {
		return nil, fmt.Errorf("unknown compression %d", o.compression)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := o.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	w := &Writer{path: path, opts: o, slots: make([]*slotWriter, slots)}
	for i := range w.slots {
		p := fmt.Sprintf("%s.tmp.%d", path, i)
		f, err := o.fs.OpenFile(p, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
		if err != nil {
			_ = w.abort()
			return nil, err
		}
		w.slots[i] = &slotWriter{path: p, file: f, w: bufio.NewWriterSize(f, 1<<20)}
	}
	return w, nil
}

// Slots returns the number of writer slots.
func (w *Writer) Slots() int { return len(w.slots) }

// Write appends a record under key through the given slot.
func (w *Writer) Write(data []byte, key string, slot int) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if slot < 0 || slot >= len(w.slots) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidSlot, slot, len(w.slots))
	}
	if key == "" || strings.ContainsAny(key, "\t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	s := w.slots[slot]
	rec, err := compressRecord(s.scratch[:0], data, w.opts.compression)
	if err != nil {
		return err
	}
	rec = append(rec, 0)
	s.scratch = rec

	if err := w.opts.rc.AcquireIO(w.opts.ctx, len(rec)); err != nil {
		return err
	}
	if _, err := s.w.Write(rec); err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}

	s.entries = append(s.entries, entry{key: key, offset: s.offset, length: int64(len(rec))})
	s.offset += int64(len(rec))
	return nil
}

// Close merges all slots into the final data file, writes the sorted index
// and the manifest, and removes the temporary files.
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	start := time.Now()
	m, err := w.merge()
	if err != nil {
		return errors.Join(err, w.abort())
	}
	if err := writeManifest(w.opts.fs, w.path, m, w.opts.codec); err != nil {
		return err
	}

	w.opts.logger.Debug("database written",
		"path", w.path,
		"entries", m.Entries,
		"bytes", m.DataSize,
		"compression", m.Compression,
		"elapsed", time.Since(start))
	return nil
}

// Abort discards the writer. Slot files are removed and no data file, index
// or manifest is written; files left at the path by an earlier database are
// removed too. Abort after Close is a no-op.
func (w *Writer) Abort() error {
	if w.closed.Swap(true) {
		return nil
	}

	errs := []error{w.abort()}
	for _, p := range []string{w.path, IndexPath(w.path), ManifestPath(w.path)} {
		if err := w.opts.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	w.opts.logger.Debug("database aborted", "path", w.path)
	return errors.Join(errs...)
}

func (w *Writer) merge() (*Manifest, error) {
	fsys := w.opts.fs

	for i, s := range w.slots {
		if err := s.w.Flush(); err != nil {
			return nil, fmt.Errorf("flush slot %d: %w", i, err)
		}
	}

	out, err := fsys.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	crc := hash.NewCRC32C()
	bw := bufio.NewWriterSize(io.MultiWriter(out, crc), 1<<20)

	var (
		base    int64
		entries []entry
	)
	for i, s := range w.slots {
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			_ = out.Close()
			return nil, err
		}
		n, err := io.Copy(bw, s.file)
		if err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("merge slot %d: %w", i, err)
		}
		if n != s.offset {
			_ = out.Close()
			return nil, fmt.Errorf("merge slot %d: copied %d of %d bytes", i, n, s.offset)
		}
		for _, e := range s.entries {
			e.offset += base
			entries = append(entries, e)
		}
		base += s.offset
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close()
		return nil, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, compareEntries)

	indexCRC, err := w.writeIndex(entries)
	if err != nil {
		return nil, err
	}

	if err := w.removeTemp(); err != nil {
		return nil, err
	}

	return &Manifest{
		Version:     FormatVersion,
		Codec:       w.opts.codec.Name(),
		Compression: w.opts.compression.String(),
		Entries:     len(entries),
		DataSize:    base,
		DataCRC32C:  crc.Sum32(),
		IndexCRC32C: indexCRC,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (w *Writer) writeIndex(entries []entry) (uint32, error) {
	f, err := w.opts.fs.OpenFile(IndexPath(w.path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	crc := hash.NewCRC32C()
	bw := bufio.NewWriter(io.MultiWriter(f, crc))

	var line []byte
	for _, e := range entries {
		line = append(line[:0], e.key...)
		line = append(line, '\t')
		line = strconv.AppendInt(line, e.offset, 10)
		line = append(line, '\t')
		line = strconv.AppendInt(line, e.length, 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			_ = f.Close()
			return 0, err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, err
	}
	return crc.Sum32(), f.Close()
}

func (w *Writer) removeTemp() error {
	var errs []error
	for _, s := range w.slots {
		if s == nil {
			continue
		}
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := w.opts.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) abort() error {
	var errs []error
	for _, s := range w.slots {
		if s == nil {
			continue
		}
		_ = s.file.Close()
		if err := w.opts.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
