package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// TypeS3 is the source type identifier for S3 sources.
const TypeS3 source.SourceType = "s3"

// S3Source loads a layer document from an S3 object.
// This source is read-only; Save returns ErrSaveNotSupported.
type S3Source struct {
	bucket string
	key    string
	cfg    clientConfig
	client *s3.Client

	clientInit    sync.Once
	clientInitErr error
}

// Ensure S3Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*S3Source)(nil)

// S3Option configures an S3Source.
type S3Option func(*S3Source)

func (S3Option) awsSourceOption() {}

// WithS3Client sets a custom S3 client.
// This overrides WithAWSConfig for the S3 client.
func WithS3Client(client *s3.Client) S3Option {
	return func(s *S3Source) {
		s.client = client
	}
}

// NewS3Source creates an S3 source for the given bucket and key.
//
// Example:
//
//	src := aws.NewS3Source("team-prefs", "firefox/base.js")
func NewS3Source(bucket, key string, opts ...Option) *S3Source {
	s := &S3Source{
		bucket: bucket,
		key:    key,
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case ClientOption:
			o(&s.cfg)
		case S3Option:
			o(s)
		}
	}

	return s
}

func (s *S3Source) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		cfg, err := loadAWSConfig(ctx, &s.cfg)
		if err != nil {
			s.clientInitErr = err
			return
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.clientInitErr
}

// Load fetches the object. A missing object is reported as *source.NotExistError.
func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := s.fetchObject(ctx, nil)
	return data, err
}

// fetchObject fetches the object, optionally with a conditional GET.
// If ifNoneMatch is given and the object is unchanged, it returns (nil, ifNoneMatch, nil).
func (s *S3Source) fetchObject(ctx context.Context, ifNoneMatch *string) ([]byte, *string, error) {
	if err := s.ensureClient(ctx); err != nil {
		return nil, nil, err
	}

	input := &s3.GetObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		IfNoneMatch: ifNoneMatch,
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.HTTPStatusCode() {
			case http.StatusNotModified:
				return nil, ifNoneMatch, nil
			case http.StatusNotFound:
				return nil, nil, source.NewNotExistError(s.String(), err)
			}
		}
		return nil, nil, fmt.Errorf("failed to get object %s: %w", s, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return data, result.ETag, nil
}

// Save always returns ErrSaveNotSupported.
func (s *S3Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false because S3 sources do not support saving.
func (s *S3Source) CanSave() bool {
	return false
}

// Type returns the source type identifier.
func (s *S3Source) Type() source.SourceType {
	return TypeS3
}

// String returns the s3:// URI of the object.
func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Bucket returns the S3 bucket name.
func (s *S3Source) Bucket() string {
	return s.bucket
}

// Key returns the S3 object key.
func (s *S3Source) Key() string {
	return s.key
}

// Watch returns a polling watcher that issues conditional GETs with the
// last seen ETag, so unchanged objects are not downloaded again.
func (s *S3Source) Watch() (watcher.Watcher, error) {
	var (
		lastETag *string
		lastData []byte
	)
	fetch := func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, etag, err := s.fetchObject(ctx, lastETag)
		if err != nil {
			return nil, err
		}
		if data == nil && etag != nil {
			return lastData, nil
		}
		lastETag, lastData = etag, data
		return data, nil
	}

	return watcher.NewPolling(fetch, s.cfg.watchOptions()...), nil
}
