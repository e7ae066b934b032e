package lake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes objects into one bucket of the data lake.
type Store struct {
	s3     S3Client
	bucket string
	now    func() time.Time
}

func NewStore(c S3Client, bucket string) *Store {
	return &Store{s3: c, bucket: bucket, now: time.Now}
}

// URI returns the s3:// location of key in the store's bucket.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// Put uploads body under key and returns its s3:// location.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if strings.TrimSpace(s.bucket) == "" {
		return "", fmt.Errorf("lake bucket not configured")
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.s3.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 putobject %s: %w", key, err)
	}
	return s.URI(key), nil
}

func (s *Store) PutBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// RawStager keeps the untouched source archive of every run under
//
//	<prefix>dt=YYYY-MM-DD/<run id>/<name>
type RawStager struct {
	Store  *Store
	Prefix string
}

func (r *RawStager) StageRaw(ctx context.Context, localPath, name, runID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open raw archive: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat raw archive: %w", err)
	}

	key := RawKey(r.Prefix, r.Store.now().UTC(), runID, name)
	return r.Store.Put(ctx, key, f, st.Size(), "application/zip")
}

func RawKey(prefix string, day time.Time, runID, name string) string {
	return fmt.Sprintf("%sdt=%s/%s/%s", EnsureTrailingSlash(prefix), day.Format("2006-01-02"), runID, name)
}

func EnsureTrailingSlash(s string) string {
	if s == "" {
		return ""
	}
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
