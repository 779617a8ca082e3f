// Package objectstore keeps time series documents as objects in an S3-compatible
// bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "application/json"

// Options configures the bucket connection.
type Options struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Store writes one object per record under Prefix.
type Store struct {
	name   string
	bucket string
	prefix string
	client *minio.Client
}

// New connects to the endpoint and creates the bucket when it does not exist.
func New(ctx context.Context, name string, opts Options) (*Store, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("objectstore %s: endpoint and bucket are required", name)
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore %s: client: %w", name, err)
	}
	if err := ensureBucket(ctx, client, opts.Bucket, opts.Region); err != nil {
		return nil, fmt.Errorf("objectstore %s: ensure bucket %s: %w", name, opts.Bucket, err)
	}
	return &Store{name: name, bucket: opts.Bucket, prefix: normalizePrefix(opts.Prefix), client: client}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (s *Store) Name() string { return s.name }
func (s *Store) Type() string { return "ObjectStore" }
func (s *Store) Close() error { return nil }

// WriteTimeSeries puts each record, replacing earlier versions.
func (s *Store) WriteTimeSeries(ctx context.Context, series []*domain.TimeSeries) error {
	for _, ts := range series {
		data, err := domain.MarshalTimeSeries(ts)
		if err != nil {
			return err
		}
		key := objectKey(s.prefix, ts)
		_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return fmt.Errorf("objectstore %s: put %s: %w", s.name, key, err)
		}
	}
	return nil
}

// ReadTimeSeries lists every object under the prefix and returns matching records.
func (s *Store) ReadTimeSeries(ctx context.Context, pattern string, period domain.Period) ([]*domain.TimeSeries, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("objectstore %s: list: %w", s.name, obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".json") {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	all := make([]*domain.TimeSeries, 0, len(keys))
	for _, key := range keys {
		data, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		ts, err := domain.UnmarshalTimeSeries(data)
		if err != nil {
			return nil, fmt.Errorf("objectstore %s: %s: %w", s.name, key, err)
		}
		all = append(all, ts)
	}
	return domain.FilterSeries(all, pattern, period), nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("objectstore %s: get %s: %w", s.name, key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("objectstore %s: read %s: %w", s.name, key, err)
	}
	return data, nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func objectKey(prefix string, ts *domain.TimeSeries) string {
	return prefix + url.PathEscape(domain.StorageKey(ts)) + ".json"
}
