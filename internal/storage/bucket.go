package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// EnsureBucket creates the configured bucket when it is missing. With publicRead set it
// also installs an anonymous GET policy, which is what local MinIO setups want for avatars.
// Any S3-compatible endpoint works.
func EnsureBucket(ctx context.Context, opts RemoteOptions, publicRead bool) error {
	host, secure := endpointHost(opts)

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:       secure,
		Region:       opts.Region,
		BucketLookup: bucketLookup(opts),
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", opts.Bucket, err)
		}
		slog.InfoContext(ctx, "storage: created bucket", "bucket", opts.Bucket)
	}

	if publicRead {
		if err := client.SetBucketPolicy(ctx, opts.Bucket, publicReadPolicy(opts.Bucket)); err != nil {
			return fmt.Errorf("set bucket policy: %w", err)
		}
	}
	return nil
}

// endpointHost turns the configured endpoint URL into the host[:port] form minio-go wants.
func endpointHost(opts RemoteOptions) (string, bool) {
	if opts.Endpoint == "" {
		region := opts.Region
		if region == "" {
			region = "us-east-1"
		}
		return "s3." + region + ".amazonaws.com", true
	}
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimRight(opts.Endpoint, "/"), false
	}
	return u.Host, u.Scheme == "https"
}

func bucketLookup(opts RemoteOptions) minio.BucketLookupType {
	if opts.Endpoint != "" {
		return minio.BucketLookupPath
	}
	return minio.BucketLookupDNS
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
