package dbstore

import (
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/seqsearch/codec"
	"github.com/hupe1980/seqsearch/internal/fs"
)

// FormatVersion is the current manifest format.
const FormatVersion = 1

// Manifest describes a database written by Writer.
type Manifest struct {
	Version     int       `json:"version"`
	Codec       string    `json:"codec"`
	Compression string    `json:"compression"`
	Entries     int       `json:"entries"`
	DataSize    int64     `json:"data_size"`
	DataCRC32C  uint32    `json:"data_crc32c"`
	IndexCRC32C uint32    `json:"index_crc32c"`
	CreatedAt   time.Time `json:"created_at"`
}

// IndexPath returns the index file path of the database at path.
func IndexPath(path string) string { return path + ".index" }

// ManifestPath returns the manifest file path of the database at path.
func ManifestPath(path string) string { return path + ".manifest" }

func writeManifest(fsys fs.FileSystem, path string, m *Manifest, c codec.Codec) error {
	data, err := c.Marshal(m)
	if err != nil {
		return err
	}

	tmp := ManifestPath(path) + ".tmp"
	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return fsys.Rename(tmp, ManifestPath(path))
}

// ReadManifest reads the manifest of the database at path. It returns
// (nil, nil) when the database has none.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(path)) //nolint:gosec // G304: database paths are user supplied
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorrupt, err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported manifest version %d", ErrCorrupt, m.Version)
	}
	if _, ok := codec.ByName(m.Codec); !ok {
		return nil, fmt.Errorf("%w: unknown manifest codec %q", ErrCorrupt, m.Codec)
	}
	return &m, nil
}
