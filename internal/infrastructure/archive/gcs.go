package archive

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Cloud Storage client from a service account file, or from
// application default credentials when credsPath is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return client, nil
}

// GCSStore writes archive objects into one bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucket), name: bucket}
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Put uploads obj in a single request. The CRC32C is sent along so the bucket rejects a
// corrupted upload.
func (s *GCSStore) Put(ctx context.Context, obj Object) error {
	w := s.bucket.Object(obj.Path).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.Metadata = obj.Metadata
	w.CRC32C = crc32.Checksum(obj.Body, castagnoli)
	w.SendCRC32C = true

	if _, err := io.Copy(w, bytes.NewReader(obj.Body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.name, obj.Path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", s.name, obj.Path, err)
	}
	return nil
}
