package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// RemoteOptions configures a RemoteProvider.
type RemoteOptions struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points at an S3-compatible service (MinIO, R2, ...). When set, requests use
	// path-style addressing.
	Endpoint string
}

// RemoteProvider stores objects in an S3-compatible bucket.
type RemoteProvider struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	region   string
	endpoint string
}

// NewRemoteProvider builds the S3 client. Empty credentials are passed through unchanged,
// so misconfiguration surfaces on the first request rather than here.
func NewRemoteProvider(ctx context.Context, opts RemoteOptions) (*RemoteProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		// Most S3-compatible servers reject the newer default integrity checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &RemoteProvider{
		client:   client,
		presign:  s3.NewPresignClient(client),
		bucket:   opts.Bucket,
		region:   opts.Region,
		endpoint: endpoint,
	}, nil
}

func (p *RemoteProvider) objectURL(key string) string {
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}

// Upload puts the object with the requested content type, user metadata and canned ACL.
func (p *RemoteProvider) Upload(ctx context.Context, key string, src Source, opts *UploadOptions) (*StoredFile, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	data, err := ReadAll(src)
	if err != nil {
		return nil, err
	}

	meta := opts.metadata()
	acl := types.ObjectCannedACLPrivate
	if opts.public() {
		acl = types.ObjectCannedACLPublicRead
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(opts.contentType()),
		Metadata:      meta,
		ACL:           acl,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}

	return &StoredFile{
		Key:         key,
		URL:         p.objectURL(key),
		Size:        int64(len(data)),
		ContentType: opts.contentType(),
		Metadata:    meta,
	}, nil
}

// Download fetches the whole object body.
func (p *RemoteProvider) Download(ctx context.Context, key string) ([]byte, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get object %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", key, err)
	}
	return data, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (p *RemoteProvider) Delete(ctx context.Context, key string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// Exists issues a HEAD request; any failure reads as absent.
func (p *RemoteProvider) Exists(ctx context.Context, key string) bool {
	_, ok := p.head(ctx, key)
	return ok
}

// SignedURL presigns a GET request valid for expiresIn (one hour when non-positive).
func (p *RemoteProvider) SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if err := requireKey(key); err != nil {
		return "", err
	}
	if expiresIn <= 0 {
		expiresIn = DefaultSignedURLExpiry
	}
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return req.URL, nil
}

// Metadata describes the object from a HEAD request.
func (p *RemoteProvider) Metadata(ctx context.Context, key string) (*StoredFile, bool) {
	out, ok := p.head(ctx, key)
	if !ok {
		return nil, false
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = DefaultContentType
	}
	var meta map[string]string
	if len(out.Metadata) > 0 {
		meta = out.Metadata
	}
	return &StoredFile{
		Key:         key,
		URL:         p.objectURL(key),
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: contentType,
		Metadata:    meta,
	}, true
}

func (p *RemoteProvider) head(ctx context.Context, key string) (*s3.HeadObjectOutput, bool) {
	if requireKey(key) != nil {
		return nil, false
	}
	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// List pages through ListObjectsV2. Content types are not part of the listing and are
// reported as the default.
func (p *RemoteProvider) List(ctx context.Context, prefix string) ([]StoredFile, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(p.bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	files := []StoredFile{}
	pager := s3.NewListObjectsV2Paginator(p.client, in)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			files = append(files, StoredFile{
				Key:         *obj.Key,
				URL:         p.objectURL(*obj.Key),
				Size:        aws.ToInt64(obj.Size),
				ContentType: DefaultContentType,
			})
		}
	}
	return files, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
