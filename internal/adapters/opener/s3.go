package opener

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"

	"loan_audit/internal/ports"
)

type S3Client interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// S3Opener reads ledger exports from a bucket. MaxSize, when set, rejects
// objects larger than it before anything is downloaded.
type S3Opener struct {
	Client  S3Client
	MaxSize int64
}

func NewS3Opener(cli S3Client) *S3Opener { return &S3Opener{Client: cli} }

func (s *S3Opener) Open(ctx context.Context, bucket, key string) (io.ReadCloser, ports.Meta, error) {
	if s.Client == nil {
		return nil, ports.Meta{}, fmt.Errorf("s3 client not configured")
	}
	src := "s3://" + bucket + "/" + key
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, ports.Meta{}, fmt.Errorf("%s: key names a folder, not a file", src)
	}

	st, err := s.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			log.Printf("[INPUT][S3][MISS] %s", src)
			return nil, ports.Meta{}, fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		log.Printf("[INPUT][S3][ERR] stat %s: %v", src, err)
		return nil, ports.Meta{}, fmt.Errorf("stat %s: %w", src, err)
	}
	if s.MaxSize > 0 && st.Size > s.MaxSize {
		return nil, ports.Meta{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, src, st.Size, s.MaxSize)
	}

	obj, err := s.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		log.Printf("[INPUT][S3][ERR] get %s: %v", src, err)
		return nil, ports.Meta{}, fmt.Errorf("get %s: %w", src, err)
	}
	log.Printf("[INPUT][S3] %s size=%d type=%q", src, st.Size, st.ContentType)
	return obj, ports.Meta{
		Source:      "s3",
		ContentType: st.ContentType,
		Size:        st.Size,
		Bucket:      bucket,
		Key:         key,
		Path:        key,
	}, nil
}
