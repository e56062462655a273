package source

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // local files
	_ "gocloud.dev/blob/gcsblob"  // GCS driver
	_ "gocloud.dev/blob/memblob"  // in-memory, for tests

	"github.com/chanzuckerberg/s3mi/internal/creds"
)

// BlobObject reads byte ranges through gocloud.dev. Credentials come
// from the ambient environment; the per-fetch snapshot is ignored.
type BlobObject struct {
	bucket *blob.Bucket
	key    string
}

// NewBlobObject opens the bucket backing the locator.
func NewBlobObject(ctx context.Context, loc Locator) (*BlobObject, error) {
	bucketURL := fmt.Sprintf("%s://%s", loc.Scheme, loc.Bucket)
	if loc.Scheme == "file" {
		bucketURL = "file://" + loc.Bucket
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}

	return &BlobObject{bucket: bucket, key: loc.Key}, nil
}

// newBlobObjectFromBucket wires an already-open bucket; used by tests.
func newBlobObjectFromBucket(bucket *blob.Bucket, key string) *BlobObject {
	return &BlobObject{bucket: bucket, key: key}
}

// Size looks up the object's total length from its attributes.
func (o *BlobObject) Size(ctx context.Context, _ creds.Snapshot) (int64, error) {
	attrs, err := o.bucket.Attributes(ctx, o.key)
	if err != nil {
		return 0, fmt.Errorf("attributes of %s: %w", o.key, err)
	}
	return attrs.Size, nil
}

// OpenRange reads length last-first+1 starting at first.
func (o *BlobObject) OpenRange(ctx context.Context, _ creds.Snapshot, first, last int64) (io.ReadCloser, error) {
	r, err := o.bucket.NewRangeReader(ctx, o.key, first, last-first+1, nil)
	if err != nil {
		return nil, fmt.Errorf("range read %s %d-%d: %w", o.key, first, last, err)
	}
	return r, nil
}

// Close releases the bucket handle.
func (o *BlobObject) Close() error {
	return o.bucket.Close()
}
