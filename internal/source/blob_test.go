package source

import (
	"bytes"
	"context"
	"io"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/chanzuckerberg/s3mi/internal/creds"
)

func memObject(t *testing.T, key string, data []byte) *BlobObject {
	t.Helper()

	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open mem bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })

	if err := bucket.WriteAll(ctx, key, data, nil); err != nil {
		t.Fatalf("write object: %v", err)
	}

	return newBlobObjectFromBucket(bucket, key)
}

func TestBlobObject_Size(t *testing.T) {
	data := []byte("0123456789")
	obj := memObject(t, "k", data)

	size, err := obj.Size(context.Background(), creds.Passthrough())
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("size = %d, want %d", size, len(data))
	}
}

func TestBlobObject_OpenRange(t *testing.T) {
	data := []byte("0123456789")
	obj := memObject(t, "k", data)

	// Inclusive range 3-7 is the five bytes "34567".
	r, err := obj.OpenRange(context.Background(), creds.Passthrough(), 3, 7)
	if err != nil {
		t.Fatalf("OpenRange: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read range: %v", err)
	}
	if !bytes.Equal(got, []byte("34567")) {
		t.Errorf("range bytes = %q, want %q", got, "34567")
	}
}

func TestBlobObject_OpenRange_Missing(t *testing.T) {
	obj := memObject(t, "k", []byte("abc"))
	obj.key = "other"

	if _, err := obj.OpenRange(context.Background(), creds.Passthrough(), 0, 1); err == nil {
		t.Error("OpenRange of a missing key should fail")
	}
}
