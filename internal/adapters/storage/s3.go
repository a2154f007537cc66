package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/minio/minio-go/v7"
)

const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type S3Putter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Store writes results under Prefix in Bucket.
type S3Store struct {
	Client S3Putter
	Bucket string
	Prefix string
}

func NewS3Store(cli S3Putter, bucket, prefix string) *S3Store {
	return &S3Store{Client: cli, Bucket: bucket, Prefix: prefix}
}

func (s *S3Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.Prefix, path.Base(name))
	log.Printf("[STORE][S3][START] bucket=%q key=%q size=%d", s.Bucket, key, len(data))
	info, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: WorkbookContentType})
	if err != nil {
		log.Printf("[STORE][S3][ERR] put: %v", err)
		return "", fmt.Errorf("s3 put: %w", err)
	}
	log.Printf("[STORE][S3][OK] etag=%q size=%d", info.ETag, info.Size)
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}
