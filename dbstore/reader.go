package dbstore

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/seqsearch/internal/hash"
	"github.com/hupe1980/seqsearch/internal/mmap"
)

type entry struct {
	key    string
	offset int64
	length int64
}

type readerOptions struct {
	verify bool
	advise mmap.AccessPattern
	logger *slog.Logger
}

// ReaderOption configures Open.
type ReaderOption func(*readerOptions)

// WithVerifyChecksums checks the data and index CRC32C against the manifest.
func WithVerifyChecksums() ReaderOption {
	return func(o *readerOptions) {
		o.verify = true
	}
}

// WithAccessPattern advises the kernel how the data file will be read.
func WithAccessPattern(p mmap.AccessPattern) ReaderOption {
	return func(o *readerOptions) {
		o.advise = p
	}
}

// WithReaderLogger sets the logger.
func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Reader serves records of a closed database. All methods are safe for
// concurrent use. Slices returned for uncompressed databases alias the
// mapped file and are valid until Close.
type Reader struct {
	path        string
	data        *mmap.Mapping
	entries     []entry
	compression Compression
	closed      atomic.Bool
}

// Open opens the database at path.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	o := readerOptions{advise: mmap.AccessRandom, logger: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}

	manifest, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	indexData, err := os.ReadFile(IndexPath(path)) //nolint:gosec // G304: database paths are user supplied
	if err != nil {
		return nil, err
	}

	data, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{path: path, data: data}
	if err := r.init(manifest, indexData, o); err != nil {
		_ = data.Close()
		return nil, err
	}

	if err := data.Advise(o.advise); err != nil {
		o.logger.Debug("madvise failed", "path", path, "error", err)
	}
	o.logger.Debug("opened database", "path", path, "entries", len(r.entries), "compression", r.compression.String())

	return r, nil
}

func (r *Reader) init(m *Manifest, indexData []byte, o readerOptions) error {
	entries, err := parseIndex(indexData, int64(r.data.Size()))
	if err != nil {
		return err
	}
	r.entries = entries

	if m == nil {
		return nil
	}

	c, err := ParseCompression(m.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	r.compression = c

	if m.Entries != len(entries) {
		return fmt.Errorf("%w: manifest lists %d entries, index has %d", ErrCorrupt, m.Entries, len(entries))
	}
	if o.verify {
		if got := hash.CRC32C(indexData); got != m.IndexCRC32C {
			return fmt.Errorf("%w: index checksum mismatch", ErrCorrupt)
		}
		if got := hash.CRC32C(r.data.Bytes()); got != m.DataCRC32C {
			return fmt.Errorf("%w: data checksum mismatch", ErrCorrupt)
		}
	}
	return nil
}

func parseIndex(data []byte, dataSize int64) ([]entry, error) {
	entries := make([]entry, 0, bytes.Count(data, []byte{'\n'}))

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: index line %d: expected 3 fields", ErrCorrupt, lineNo)
		}
		offset, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: index line %d: %w", ErrCorrupt, lineNo, err)
		}
		length, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: index line %d: %w", ErrCorrupt, lineNo, err)
		}
		if offset < 0 || length < 1 || offset+length > dataSize {
			return nil, fmt.Errorf("%w: index line %d: record [%d,%d) outside data file of %d bytes",
				ErrCorrupt, lineNo, offset, offset+length, dataSize)
		}
		entries = append(entries, entry{key: fields[0], offset: offset, length: length})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if !slices.IsSortedFunc(entries, compareEntries) {
		slices.SortStableFunc(entries, compareEntries)
	}
	return entries, nil
}

func compareEntries(a, b entry) int { return strings.Compare(a.key, b.key) }

// Path returns the data file path.
func (r *Reader) Path() string { return r.path }

// Size returns the number of records.
func (r *Reader) Size() int { return len(r.entries) }

// Compression returns the record compression.
func (r *Reader) Compression() Compression { return r.compression }

// Key returns the key of the id-th record in key order.
// It panics if id is out of range.
func (r *Reader) Key(id int) string { return r.entries[id].key }

// Lookup returns the id of key.
func (r *Reader) Lookup(key string) (int, bool) {
	return slices.BinarySearchFunc(r.entries, key, func(e entry, k string) int {
		return strings.Compare(e.key, k)
	})
}

// GetByKey returns the record stored under key, without its terminator.
// A missing key returns ErrNotFound; an empty record returns an empty,
// non-nil slice.
func (r *Reader) GetByKey(key string) ([]byte, error) {
	id, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %q in %s", ErrNotFound, key, r.path)
	}
	return r.GetByID(id)
}

// GetByID returns the id-th record in key order, without its terminator.
func (r *Reader) GetByID(id int) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if id < 0 || id >= len(r.entries) {
		return nil, fmt.Errorf("%w: id %d in %s", ErrNotFound, id, r.path)
	}

	e := r.entries[id]
	raw := r.data.Bytes()[e.offset : e.offset+e.length-1 : e.offset+e.length-1]
	return decompressRecord(raw, r.compression)
}

// Close unmaps the data file. It is idempotent.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.data.Close()
}
