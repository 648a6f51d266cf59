package seqsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/seqsearch/blobstore"
	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/internal/pool"
	"github.com/hupe1980/seqsearch/internal/resource"
)

// Publish uploads the database at dbPath to store under prefix and then
// points blobstore.CurrentName at prefix. Data and index are uploaded in
// parallel; the manifest, when present, is uploaded after both, so a reader
// that finds the manifest finds a complete database.
func Publish(ctx context.Context, store blobstore.BlobStore, prefix, dbPath string, opts ...Option) error {
	o := applyOptions(opts)
	prefix = strings.Trim(prefix, "/")

	blobs, n, err := publish(ctx, store, prefix, dbPath, o)
	o.logger.LogPublish(ctx, prefix, blobs, n, err)
	return err
}

func publish(ctx context.Context, store blobstore.BlobStore, prefix, dbPath string, o options) (int, int64, error) {
	if store == nil {
		return 0, 0, fmt.Errorf("%w: blob store is required", ErrInvalidConfig)
	}
	if prefix == "" {
		return 0, 0, fmt.Errorf("%w: publish prefix is required", ErrInvalidConfig)
	}

	manifest, err := dbstore.ReadManifest(dbPath)
	if err != nil {
		return 0, 0, err
	}

	rc := o.controller()

	var written atomic.Int64
	upload := func(ctx context.Context, src string) error {
		n, err := uploadFile(ctx, store, path.Join(prefix, filepath.Base(src)), src, rc)
		written.Add(n)
		if err == nil {
			if m := o.observer(); m != nil {
				m.OnThroughput("publish", n)
			}
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.uploadConcurrency, 1))
	for _, src := range []string{dbPath, dbstore.IndexPath(dbPath)} {
		g.Go(func() error { return upload(gctx, src) })
	}
	if err := g.Wait(); err != nil {
		return 0, written.Load(), err
	}

	blobs := 2
	if manifest != nil {
		if err := upload(ctx, dbstore.ManifestPath(dbPath)); err != nil {
			return blobs, written.Load(), err
		}
		blobs++
	}

	if err := store.Put(ctx, blobstore.CurrentName, []byte(prefix)); err != nil {
		return blobs, written.Load(), fmt.Errorf("update %s: %w", blobstore.CurrentName, err)
	}
	return blobs, written.Load(), nil
}

// uploadFile streams src into the blob name. A failed copy aborts the blob.
func uploadFile(ctx context.Context, store blobstore.BlobStore, name, src string, rc *resource.Controller) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	n, err := io.CopyBuffer(w, &throttledReader{ctx: ctx, r: f, rc: rc}, (*buf)[:cap(*buf)])
	if err == nil {
		err = w.Sync()
	}
	if err != nil {
		return n, errors.Join(fmt.Errorf("upload %s: %w", name, err), blobstore.Abort(w))
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", name, err)
	}
	return n, nil
}

// throttledReader charges every read against the IO budget of rc.
type throttledReader struct {
	ctx context.Context
	r   io.Reader
	rc  *resource.Controller
}

func (t *throttledReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.rc.AcquireIO(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
